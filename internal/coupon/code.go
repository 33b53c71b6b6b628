package coupon

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the visible prefix of every redemption code.
const DefaultPrefix = "TRV"

// codeLength is the number of entropy characters after the prefix. Twelve
// base32 characters carry 60 bits, enough to make collisions negligible;
// the database unique constraint on code is the authoritative check.
const codeLength = 12

// Generator produces unique, human-shareable redemption codes.
type Generator interface {
	// Generate returns a code of the form "PREFIX-XXXXXXXXXXXX". The suffix
	// is drawn from a cryptographically strong random source and is not
	// predictable from time, user, or sequence.
	Generate() string
}

// uuidGenerator derives codes from random (v4) UUIDs.
type uuidGenerator struct {
	prefix string
}

// NewGenerator creates a code generator with the given prefix. An empty
// prefix falls back to DefaultPrefix.
func NewGenerator(prefix string) Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &uuidGenerator{prefix: strings.ToUpper(prefix)}
}

// base32 without padding keeps the suffix upper-case alphanumeric and safe
// to embed in a URL query parameter unescaped.
var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generate returns a fresh redemption code.
func (g *uuidGenerator) Generate() string {
	id := uuid.New()
	suffix := codeEncoding.EncodeToString(id[:])[:codeLength]
	return g.prefix + "-" + suffix
}
