// Package password generates random passwords for the standalone password
// generator tool.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	MinLength     = 8
	MaxLength     = 64
	DefaultLength = 16
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numbers   = "0123456789"
	symbols   = "!@#$%^&*()_+~`|}{[]:;?><,./-="
	ambiguous = "il1Lo0O"
)

// Options selects the character classes. Lowercase letters are always
// included.
type Options struct {
	Length           int
	Uppercase        bool
	Numbers          bool
	Symbols          bool
	ExcludeAmbiguous bool
}

// DefaultOptions mirrors the tool's initial settings.
func DefaultOptions() Options {
	return Options{Length: DefaultLength, Uppercase: true, Numbers: true, Symbols: true}
}

// ErrLength is returned for a length outside MinLength..MaxLength.
var ErrLength = errors.New("password: length out of range")

// Generate returns a password drawn uniformly from the selected pool. A zero
// length selects DefaultLength.
func Generate(opts Options) (string, error) {
	n := opts.Length
	if n == 0 {
		n = DefaultLength
	}
	if n < MinLength || n > MaxLength {
		return "", fmt.Errorf("%w: %d (want %d-%d)", ErrLength, n, MinLength, MaxLength)
	}

	pool := []rune(Pool(opts))
	size := big.NewInt(int64(len(pool)))
	out := make([]rune, n)
	for i := range out {
		k, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("password: reading randomness: %w", err)
		}
		out[i] = pool[k.Int64()]
	}
	return string(out), nil
}

// Pool returns the characters Generate draws from.
func Pool(opts Options) string {
	var b strings.Builder
	b.WriteString(lowercase)
	if opts.Uppercase {
		b.WriteString(uppercase)
	}
	if opts.Numbers {
		b.WriteString(numbers)
	}
	if opts.Symbols {
		b.WriteString(symbols)
	}
	if !opts.ExcludeAmbiguous {
		return b.String()
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(ambiguous, r) {
			return -1
		}
		return r
	}, b.String())
}
