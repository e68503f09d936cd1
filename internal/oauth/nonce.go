package oauth

import (
	"crypto/rand"
)

const (
	nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	nonceLength   = 32
)

// AlphanumericNoncer generates 32-character nonces drawn uniformly from
// [A-Za-z0-9] using crypto/rand. It satisfies oauth1.Noncer.
type AlphanumericNoncer struct{}

// Nonce returns a fresh random nonce.
func (AlphanumericNoncer) Nonce() string {
	// Rejection sampling keeps the distribution uniform: 248 is the largest
	// multiple of 62 that fits in a byte.
	const limit = 256 - 256%len(nonceAlphabet)

	out := make([]byte, 0, nonceLength)
	buf := make([]byte, nonceLength*2)
	for len(out) < nonceLength {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, nonceAlphabet[int(b)%len(nonceAlphabet)])
			if len(out) == nonceLength {
				break
			}
		}
	}
	return string(out)
}
