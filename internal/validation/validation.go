// Package validation implements the path-traversal and key-shape checks
// spec.md §7 requires every mutation endpoint to apply before any S3 call.
package validation

import (
	"strings"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
)

// SanitizeKey rejects a key or prefix containing a ".." segment, a leading
// "/", or a NUL byte, returning apperr.InvalidInput. It does not otherwise
// modify key.
func SanitizeKey(key string) (string, error) {
	if key == "" {
		return "", apperr.New(apperr.InvalidInput, "key must not be empty")
	}
	if strings.HasPrefix(key, "/") {
		return "", apperr.New(apperr.InvalidInput, "key must not start with /")
	}
	if strings.Contains(key, "\x00") {
		return "", apperr.New(apperr.InvalidInput, "key must not contain a NUL byte")
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", apperr.New(apperr.InvalidInput, "key must not contain .. segments")
		}
	}
	return key, nil
}

// SanitizePrefix applies the same rules as SanitizeKey but allows an empty
// prefix (meaning "bucket root").
func SanitizePrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", nil
	}
	return SanitizeKey(prefix)
}

// ValidateTTL enforces spec.md §4.7's presign bounds: 60 seconds to 7 days.
func ValidateTTL(ttlSeconds int64) error {
	const (
		minTTL = 60
		maxTTL = 7 * 24 * 3600
	)
	if ttlSeconds < minTTL || ttlSeconds > maxTTL {
		return apperr.Newf(apperr.InvalidInput, "ttl must be between %d and %d seconds", minTTL, maxTTL)
	}
	return nil
}

// ValidatePartNumber enforces spec.md §4.5's 1..10000 bound.
func ValidatePartNumber(partNumber int32) error {
	if partNumber < 1 || partNumber > 10000 {
		return apperr.New(apperr.InvalidInput, "partNumber must be between 1 and 10000")
	}
	return nil
}
