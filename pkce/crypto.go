package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
)

// DigestFunc computes a digest of data. The default is SHA-256.
type DigestFunc func(data []byte) ([]byte, error)

// Crypto bundles the primitives PKCE material is minted from. The random
// source and digest function are injectable so tests can simulate an
// environment where either primitive is missing or failing.
type Crypto struct {
	randSource io.Reader
	digest     DigestFunc
}

// CryptoOption configures a Crypto instance.
type CryptoOption func(*Crypto)

// WithRandSource replaces the secure random source (primarily for testing).
func WithRandSource(r io.Reader) CryptoOption {
	return func(c *Crypto) {
		c.randSource = r
	}
}

// WithDigest replaces the digest function (primarily for testing).
func WithDigest(fn DigestFunc) CryptoOption {
	return func(c *Crypto) {
		c.digest = fn
	}
}

// NewCrypto returns a Crypto backed by crypto/rand and SHA-256.
func NewCrypto(options ...CryptoOption) *Crypto {
	c := &Crypto{
		randSource: rand.Reader,
		digest: func(data []byte) ([]byte, error) {
			sum := sha256.Sum256(data)
			return sum[:], nil
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// RandomBytes returns n bytes from the secure random source.
func (c *Crypto) RandomBytes(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, errors.Errorf("[Crypto.RandomBytes] random source panicked: %v", r)
		}
	}()

	if c.randSource == nil {
		return nil, errors.New("[Crypto.RandomBytes] no secure random source available")
	}
	b = make([]byte, n)
	if _, err := io.ReadFull(c.randSource, b); err != nil {
		return nil, errors.Wrap(err, "[Crypto.RandomBytes] read")
	}
	return b, nil
}

// Digest returns the digest of data.
func (c *Crypto) Digest(data []byte) (sum []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			sum, err = nil, errors.Errorf("[Crypto.Digest] digest panicked: %v", r)
		}
	}()

	if c.digest == nil {
		return nil, errors.New("[Crypto.Digest] no digest primitive available")
	}
	sum, err = c.digest(data)
	if err != nil {
		return nil, errors.Wrap(err, "[Crypto.Digest] digest")
	}
	return sum, nil
}

// Base64URLEncode encodes b in the canonical RFC 7636 form: URL-safe
// alphabet, no padding.
func Base64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// RandomAvailable probes the random source without letting a probe failure
// escape. Used by strategy capability checks.
func (c *Crypto) RandomAvailable() bool {
	_, err := c.RandomBytes(1)
	return err == nil
}

// DigestAvailable probes the digest primitive without letting a probe
// failure escape.
func (c *Crypto) DigestAvailable() bool {
	_, err := c.Digest([]byte("probe"))
	return err == nil
}
