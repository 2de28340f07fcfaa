package s3util

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=weekly-asset-pipeline"

// ProjectTagging returns the tagging string for PutObjectInput.
func ProjectTagging() *string {
	t := projectTag
	return &t
}
