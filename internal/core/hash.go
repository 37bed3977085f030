package core

import (
	"crypto/sha256"
	"math/big"
	"strings"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultHashLength matches the width used for content-addressed assets.
const DefaultHashLength = 32

var base62 = big.NewInt(62)

// Hash returns a deterministic base62 identifier for content. A fixed-width
// prefix of the SHA-256 digest is re-encoded into [0-9A-Za-z], left-padded
// with '0' and truncated to length.
func Hash(content string, length int) string {
	if length <= 0 {
		length = DefaultHashLength
	}

	sum := sha256.Sum256([]byte(content))
	n := new(big.Int).SetBytes(sum[:24])

	var buf []byte
	rem := new(big.Int)
	for n.Sign() > 0 {
		n.QuoRem(n, base62, rem)
		buf = append(buf, base62Alphabet[rem.Int64()])
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	encoded := string(buf)
	if len(encoded) < length {
		encoded = strings.Repeat("0", length-len(encoded)) + encoded
	}
	return encoded[:length]
}
