package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// Domain prefixes for content hashing. The version suffix allows a future
// algorithm migration without colliding with old digests.
const (
	DomainDelivery = "netreplay/delivery/v1"
	DomainTrace    = "netreplay/trace/v1"
)

// Digest is a running hash over an ordered sequence of deliveries.
// Two delivery sequences produce the same digest only if they carry the
// same payloads in the same order.
type Digest struct {
	h     hash.Hash
	count int
}

// NewDigest starts a digest in the given domain.
func NewDigest(domain string) *Digest {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	return &Digest{h: h}
}

// Add appends one value's canonical encoding, newline terminated.
func (d *Digest) Add(v any) error {
	data, err := Canonical(v)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	d.h.Write(data)
	d.h.Write([]byte{'\n'})
	d.count++
	return nil
}

// Count returns the number of values added.
func (d *Digest) Count() int { return d.count }

// Sum returns the hex digest of everything added so far.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
