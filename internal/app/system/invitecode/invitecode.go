// Package invitecode produces short human-enterable invite codes. Codes
// are drawn from a 32-symbol alphabet that excludes visually ambiguous
// characters (no I, O, 0, 1) so they survive being read aloud or copied
// by hand.
package invitecode

import (
	crand "crypto/rand"
	"math/big"
	mrand "math/rand"

	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
)

const (
	// Alphabet is the restricted 32-symbol code alphabet.
	Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	// Length is the number of symbols in a code. 32^8 possible codes
	// makes a random collision astronomically rare.
	Length = 8
	// MaxAttempts bounds the uniqueness retry loop. It is a safety net,
	// not the primary collision mechanism.
	MaxAttempts = 5
)

// ExistsFunc reports whether a code is already taken by any invite,
// across all groups.
type ExistsFunc func(code string) (bool, error)

// Generator draws candidate codes and probes for global uniqueness.
// The zero value is not usable; construct with New.
type Generator struct {
	draw func() string
}

// New returns a Generator using a cryptographically strong random
// source, falling back to math/rand if the system source fails.
func New() *Generator {
	return &Generator{draw: randomCode}
}

// NewWithDraw returns a Generator with an injected draw function.
// Used by tests to force collisions.
func NewWithDraw(draw func() string) *Generator {
	return &Generator{draw: draw}
}

// Generate returns a code no existing invite uses. Each candidate is
// checked via exists; on collision it retries up to MaxAttempts times,
// then fails with a conflict.
func (g *Generator) Generate(exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		code := g.draw()
		taken, err := exists(code)
		if err != nil {
			return "", apperr.Wrap(err, "invite code uniqueness check")
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperr.Conflict("invite code generation exhausted after %d attempts", MaxAttempts)
}

// randomCode draws Length symbols from Alphabet. crypto/rand is used
// when available; a math/rand draw covers the rare case where the
// system entropy source errors.
func randomCode() string {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			buf[i] = Alphabet[mrand.Intn(len(Alphabet))]
			continue
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}
