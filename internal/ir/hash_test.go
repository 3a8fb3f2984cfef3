package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestOf(t *testing.T, domain string, vs ...any) string {
	t.Helper()
	d := NewDigest(domain)
	for _, v := range vs {
		require.NoError(t, d.Add(v))
	}
	return d.Sum()
}

func TestDigestDeterminism(t *testing.T) {
	e := LinkEvent{Time: 10, Link: NewLink(1, 2), Type: LinkUp}

	sum := digestOf(t, DomainDelivery, e)
	assert.Equal(t, sum, digestOf(t, DomainDelivery, e))
	assert.Len(t, sum, 64, "SHA-256 hex is 64 characters")
}

func TestDigestDomainSeparation(t *testing.T) {
	e := PresenceEvent{Time: 1, Node: 1, Type: PresenceIn}
	assert.NotEqual(t, digestOf(t, DomainDelivery, e), digestOf(t, DomainTrace, e))
}

func TestDigestNormalizesLinks(t *testing.T) {
	a := digestOf(t, DomainDelivery, LinkEvent{Time: 1, Link: NewLink(1, 2), Type: LinkUp})
	b := digestOf(t, DomainDelivery, LinkEvent{Time: 1, Link: NewLink(2, 1), Type: LinkUp})
	assert.Equal(t, a, b)
}

func TestDigestOrderSensitive(t *testing.T) {
	e1 := PresenceEvent{Time: 1, Node: 1, Type: PresenceIn}
	e2 := PresenceEvent{Time: 1, Node: 2, Type: PresenceIn}

	d1 := NewDigest(DomainDelivery)
	require.NoError(t, d1.Add(e1))
	require.NoError(t, d1.Add(e2))

	d2 := NewDigest(DomainDelivery)
	require.NoError(t, d2.Add(e2))
	require.NoError(t, d2.Add(e1))

	d3 := NewDigest(DomainDelivery)
	require.NoError(t, d3.Add(e1))
	require.NoError(t, d3.Add(e2))

	assert.NotEqual(t, d1.Sum(), d2.Sum())
	assert.Equal(t, d1.Sum(), d3.Sum())
	assert.Equal(t, 2, d1.Count())
}

func TestDigestEmpty(t *testing.T) {
	assert.Equal(t, NewDigest(DomainDelivery).Sum(), NewDigest(DomainDelivery).Sum())
	assert.NotEqual(t, NewDigest(DomainDelivery).Sum(), NewDigest(DomainTrace).Sum())
}
