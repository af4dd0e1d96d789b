package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// parseIDParam reads a positive integer path parameter.
func parseIDParam(r *http.Request, name string) (uint, bool) {
	return parseID(chi.URLParam(r, name))
}

func parseID(value string) (uint, bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

// parseIDs keeps the well-formed ids of a multi-value form field.
func parseIDs(values []string) []uint {
	result := make([]uint, 0, len(values))
	for _, value := range values {
		if id, ok := parseID(value); ok {
			result = append(result, id)
		}
	}
	return result
}
