package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/roach88/netreplay/internal/ir"
)

// Digest fingerprints every delivery it receives, one running hash per
// bus. Its output is "bus count sha256" per declared capability, so two
// runs over the same traces agree line for line only when every bus saw
// the same values in the same order.
type Digest struct {
	base
	digests map[Capability]*ir.Digest
}

// NewDigest creates a digest report over caps writing to w.
func NewDigest(w io.Writer, caps Capabilities) *Digest {
	d := &Digest{
		base:    newBase("digest", w, caps.List()...),
		digests: make(map[Capability]*ir.Digest),
	}
	for _, c := range caps.List() {
		d.digests[c] = ir.NewDigest(ir.DomainDelivery)
	}
	return d
}

// add returns a listener feeding the digest of c.
func add[T any](d *Digest, c Capability) func(T) error {
	if !d.caps.Has(c) {
		return nil
	}
	dg := d.digests[c]
	return func(v T) error {
		if err := dg.Add(v); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
		return nil
	}
}

func (d *Digest) Listeners() Listeners {
	return Listeners{
		PresenceEvents: add[ir.PresenceEvent](d, PresenceEvents),
		PresenceStates: add[ir.PresenceSnapshot](d, PresenceStates),
		LinkEvents:     add[ir.LinkEvent](d, LinkEvents),
		LinkStates:     add[ir.LinkSnapshot](d, LinkStates),
		GroupEvents:    add[ir.GroupEvent](d, GroupEvents),
		GroupStates:    add[ir.GroupSnapshot](d, GroupStates),
	}
}

// Sum returns the running digest of c, or "" when c is not declared.
func (d *Digest) Sum(c Capability) string {
	dg, ok := d.digests[c]
	if !ok {
		return ""
	}
	return dg.Sum()
}

func (d *Digest) Finish() error {
	return d.finish(func(buf *bytes.Buffer) {
		for _, c := range d.caps.List() {
			dg := d.digests[c]
			fmt.Fprintf(buf, "%s %d %s\n", c, dg.Count(), dg.Sum())
		}
	})
}
