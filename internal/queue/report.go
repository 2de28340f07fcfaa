package queue

import (
	"fmt"
	"io"
	"path/filepath"
)

// PrintReport writes the human-readable run summary. Cost-skipped items are
// listed with their full prompt so nothing is lost.
func PrintReport(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "============================================")
	fmt.Fprintln(w, "Asset Generation Report")
	fmt.Fprintln(w, "============================================")
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	if s.AssetType != "" {
		fmt.Fprintf(w, "Asset type: %s\n", s.AssetType)
	}
	if s.Diagnostic != "" {
		fmt.Fprintf(w, "Nothing generated: %s\n", s.Diagnostic)
		return
	}
	fmt.Fprintf(w, "Total: %d  Successful: %d  Failed: %d  Skipped for cost: %d\n",
		s.Total, s.Successful, s.Failed, s.SkippedForCost)
	if s.Cancelled {
		fmt.Fprintf(w, "Cancelled: %d item(s) not started\n", s.NotStarted)
	} else if s.NotStarted > 0 {
		fmt.Fprintf(w, "Limited: %d item(s) not started\n", s.NotStarted)
	}
	fmt.Fprintln(w)

	successes := s.Successes()
	fmt.Fprintf(w, "GENERATED (%d)\n", len(successes))
	fmt.Fprintln(w, "--------------------------------------------")
	if len(successes) == 0 {
		fmt.Fprintln(w, "   (none)")
	}
	for i, r := range successes {
		fmt.Fprintf(w, "   %2d. [%s] %s\n", i+1, r.Priority, filepath.Base(r.LocalPath))
	}
	fmt.Fprintln(w)

	failures := s.Failures()
	fmt.Fprintf(w, "FAILED (%d)\n", len(failures))
	fmt.Fprintln(w, "--------------------------------------------")
	if len(failures) == 0 {
		fmt.Fprintln(w, "   (none)")
	}
	for i, r := range failures {
		fmt.Fprintf(w, "   %2d. [%s] %s\n", i+1, r.Priority, r.Label())
		fmt.Fprintf(w, "       %s: %s\n", r.ErrorKind, r.ErrorMessage)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "PENDING COST APPROVAL (%d)\n", len(s.PendingCostApproval))
	fmt.Fprintln(w, "--------------------------------------------")
	if len(s.PendingCostApproval) == 0 {
		fmt.Fprintln(w, "   (none)")
	}
	for i, p := range s.PendingCostApproval {
		fmt.Fprintf(w, "   %2d. %s (%s) model=%s est=$%.2f\n", i+1, p.ID, p.Name, p.ProviderModel, p.EstimatedCost)
		fmt.Fprintf(w, "       prompt: %s\n", p.Prompt)
	}
	fmt.Fprintln(w, "============================================")
}
