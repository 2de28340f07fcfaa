package provider

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Shape is one place a provider may put its result. Path uses dotted field
// names with optional [i] indexes, e.g. "images[0].url". Inline shapes hold
// base64 bytes instead of a URL.
type Shape struct {
	Path   string
	Inline bool
}

// Result is the artifact located in a provider response.
type Result struct {
	URL         string
	Data        []byte
	ContentType string
	// Shape is the path that matched.
	Shape string
}

// Extraction orders per model family. The first matching shape wins.
var (
	GenericOrder = []Shape{
		{Path: "url"},
		{Path: "images[0].url"},
		{Path: "image.url"},
		{Path: "video.url"},
		{Path: "audio.url"},
		{Path: "audio_file.url"},
		{Path: "model_mesh.url"},
		{Path: "model_glb.url"},
		{Path: "output[0]"},
		{Path: "output"},
		{Path: "images[0].content", Inline: true},
		{Path: "image.data", Inline: true},
	}

	ImageOrder = []Shape{
		{Path: "images[0].url"},
		{Path: "image.url"},
		{Path: "url"},
		{Path: "output[0]"},
		{Path: "output"},
		{Path: "images[0].content", Inline: true},
		{Path: "image.data", Inline: true},
	}

	VideoOrder = []Shape{
		{Path: "video.url"},
		{Path: "url"},
		{Path: "output[0]"},
		{Path: "output"},
	}

	AudioOrder = []Shape{
		{Path: "audio.url"},
		{Path: "audio_file.url"},
		{Path: "url"},
		{Path: "output"},
	}

	ModelOrder = []Shape{
		{Path: "model_glb.url"},
		{Path: "model_mesh.url"},
		{Path: "url"},
		{Path: "output"},
	}
)

// Extract walks order against resp and returns the first non-empty match.
// A nil order means GenericOrder.
func Extract(resp map[string]any, order []Shape) (Result, error) {
	if order == nil {
		order = GenericOrder
	}
	for _, shape := range order {
		val, parent, ok := lookup(resp, shape.Path)
		if !ok {
			continue
		}
		s, ok := val.(string)
		if !ok || s == "" {
			continue
		}

		res := Result{Shape: shape.Path}
		if ct, ok := parent["content_type"].(string); ok {
			res.ContentType = ct
		}
		if shape.Inline {
			data, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				continue
			}
			res.Data = data
			return res, nil
		}
		res.URL = s
		return res, nil
	}
	return Result{}, &Error{Kind: KindNoResult, Message: "response matched no known shape", Err: ErrNoResultInResponse}
}

// lookup resolves a dotted path and also returns the object holding the
// final field, so sibling fields like content_type can be read.
func lookup(root map[string]any, path string) (any, map[string]any, bool) {
	var cur any = root
	parent := root
	for _, seg := range strings.Split(path, ".") {
		name, idx, hasIdx, err := parseSegment(seg)
		if err != nil {
			return nil, nil, false
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, nil, false
		}
		parent = obj
		cur, ok = obj[name]
		if !ok {
			return nil, nil, false
		}
		if hasIdx {
			list, ok := cur.([]any)
			if !ok || idx >= len(list) {
				return nil, nil, false
			}
			cur = list[idx]
			if m, ok := cur.(map[string]any); ok {
				parent = m
			}
		}
	}
	return cur, parent, true
}

func parseSegment(seg string) (name string, idx int, hasIdx bool, err error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, 0, false, nil
	}
	if !strings.HasSuffix(seg, "]") {
		return "", 0, false, fmt.Errorf("malformed path segment %q", seg)
	}
	idx, err = strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil || idx < 0 {
		return "", 0, false, fmt.Errorf("malformed index in %q", seg)
	}
	return seg[:open], idx, true, nil
}
