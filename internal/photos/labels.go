package photos

import (
	"sort"
	"strings"
)

// CustomLabelsMetadataKey is the S3 user-metadata key carrying the
// comma-separated labels supplied at upload time (x-amz-meta-customlabels).
const CustomLabelsMetadataKey = "customlabels"

// supportedContentTypes is the content-type allow-list for indexing.
// Rekognition accepts only JPEG and PNG byte payloads.
var supportedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// IsSupportedContentType reports whether an object with the given declared
// content type may be indexed. The comparison is exact.
func IsSupportedContentType(contentType string) bool {
	return supportedContentTypes[contentType]
}

// CustomLabels returns the raw customlabels value from object metadata.
// S3 lower-cases user metadata keys, but objects written through other
// tooling may not, so the lookup falls back to a case-insensitive match.
func CustomLabels(metadata map[string]string) string {
	if v, ok := metadata[CustomLabelsMetadataKey]; ok {
		return v
	}
	for k, v := range metadata {
		if strings.EqualFold(k, CustomLabelsMetadataKey) {
			return v
		}
	}
	return ""
}

// ParseCustomLabels splits a comma-separated label list and trims each token.
// Blank input yields nil; tokens that are empty after trimming are dropped.
func ParseCustomLabels(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// MergeLabels returns the deduplicated union of the detected and custom
// labels. Matching is case-sensitive ("Cat" and "cat" are distinct). The
// result is sorted so responses and documents are stable across invocations.
func MergeLabels(detected, custom []string) []string {
	seen := make(map[string]struct{}, len(detected)+len(custom))
	merged := make([]string, 0, len(detected)+len(custom))
	for _, group := range [][]string{detected, custom} {
		for _, label := range group {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			merged = append(merged, label)
		}
	}
	sort.Strings(merged)
	return merged
}
