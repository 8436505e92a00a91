package search

import "strings"

// pushRecent moves query to the front of list, removing an exact duplicate
// and trimming the result to limit entries.
func pushRecent(list []string, query string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, query)
	for _, q := range list {
		if q != query {
			out = append(out, q)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// normalizeRecent drops blanks and duplicates from a loaded list while
// keeping the first occurrence of each entry
func normalizeRecent(list []string, limit int) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, q := range list {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
