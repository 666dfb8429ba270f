package utils

import (
	"net/http"
	"sort"
	"strings"
)

// Pointer pointer
func Pointer[Value any](v Value) *Value {
	return &v
}

// SortedCopy returns a sorted, deduplicated copy of s
func SortedCopy(s []string) []string {
	if len(s) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)

	return out
}

// GetIP get the client's ip address
func GetIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ip := strings.Split(xff, ",")[0]
		if ip != "" {
			return ip
		}
	}

	remoteAddr := r.RemoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}

	return remoteAddr
}
