package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
)

// Input validation and sanitization utilities

// ValidateKind checks the scan kind from the URL.
func ValidateKind(kind string) (ai.Kind, error) {
	return domain.ParseKind(kind)
}

// ValidateFindingID parses a positive finding id.
func ValidateFindingID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid finding id %q", raw)
	}
	return id, nil
}

// ValidateMode accepts an empty mode, meaning the configured default.
func ValidateMode(raw string) (ai.Mode, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return ai.ParseMode(raw)
}

// MaxBodySize caps request bodies at maxMB megabytes.
func MaxBodySize(maxMB int) func(http.Handler) http.Handler {
	limit := int64(maxMB) << 20
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, fmt.Sprintf("request body exceeds %d MB", maxMB), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
