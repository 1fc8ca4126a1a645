// Where: cli/internal/domain/resource/suffix.go
// What: Per-run uniqueness suffix generation.
// Why: Every named cloud resource embeds the suffix to avoid collisions between runs.
package resource

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	SuffixLength   = 6
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var ErrInvalidSuffix = errors.New("invalid uniqueness suffix")

var randReader io.Reader = rand.Reader

// NewSuffix returns a random token of SuffixLength characters from [a-z0-9].
func NewSuffix() (string, error) {
	buf := make([]byte, SuffixLength)
	limit := big.NewInt(int64(len(suffixAlphabet)))
	for i := range buf {
		n, err := rand.Int(randReader, limit)
		if err != nil {
			return "", fmt.Errorf("generate suffix: %w", err)
		}
		buf[i] = suffixAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ValidateSuffix checks length and alphabet.
func ValidateSuffix(suffix string) error {
	if len(suffix) != SuffixLength {
		return fmt.Errorf("%w: %q must be %d characters", ErrInvalidSuffix, suffix, SuffixLength)
	}
	for _, r := range suffix {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSuffix, suffix, r)
		}
	}
	return nil
}
