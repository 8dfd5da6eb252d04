package utils

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// CreateHash returns a stable hex digest of text, used for cache keys.
func CreateHash(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}
