package strutil

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// ConvertKVStringsToMap is from https://github.com/moby/moby/blob/v20.10.0-rc2/runconfig/opts/parse.go
//
// ConvertKVStringsToMap converts ["key=value"] to {"key":"value"}.
func ConvertKVStringsToMap(values []string) map[string]string {
	result := make(map[string]string, len(values))

	const splitLimit = 2
	for _, value := range values {
		kv := strings.SplitN(value, "=", splitLimit)
		if len(kv) == 1 {
			result[kv[0]] = ""
		} else {
			result[kv[0]] = kv[1]
		}
	}

	return result
}

// DedupeStrSlice returns the distinct values of in, in order of first appearance.
func DedupeStrSlice(in []string) []string {
	m := make(map[string]struct{})

	var res []string

	for _, s := range in {
		if _, ok := m[s]; !ok {
			res = append(res, s)
			m[s] = struct{}{}
		}
	}

	return res
}

// ParseLabels converts ["key=value"] flags into pod labels.
// Every key must be a qualified name and every value a valid label value.
func ParseLabels(values []string) (map[string]string, error) {
	labels := ConvertKVStringsToMap(values)
	for key, value := range labels {
		if errs := validation.IsQualifiedName(key); len(errs) > 0 {
			return nil, fmt.Errorf("invalid label key %q: %s", key, strings.Join(errs, "; "))
		}
		if errs := validation.IsValidLabelValue(value); len(errs) > 0 {
			return nil, fmt.Errorf("invalid value for label %q: %s", key, strings.Join(errs, "; "))
		}
	}
	return labels, nil
}
