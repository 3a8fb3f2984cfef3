package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"number", json.Number("9223372036854775807"), "9223372036854775807"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array of ints", []any{1, 2, 3}, "[1,2,3]"},
		{"simple object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  map[string]any{"b": 1, "a": 2},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: UTF-16 order differs from UTF-8
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	expected := "{\"\U00010000\":2,\"\uE000\":1}"
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	result, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// A literal backslash followed by u2028 text stays escaped.
	result, err = MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to a single code point
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	require.Error(t, err)

	_, err = MarshalCanonical(json.Number("1.5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestMarshalCanonicalUnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestCanonicalEvents(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{
			"presence event",
			PresenceEvent{Time: 5, Node: 3, Type: PresenceIn},
			`{"node":3,"time":5,"type":"in"}`,
		},
		{
			"link event flattens link",
			LinkEvent{Time: 7, Link: NewLink(2, 1), Type: LinkDown},
			`{"id1":1,"id2":2,"time":7,"type":"down"}`,
		},
		{
			"group event without members",
			GroupEvent{Time: 1, GID: 4, Type: GroupDelete},
			`{"gid":4,"time":1,"type":"delete"}`,
		},
		{
			"empty snapshot",
			PresenceSnapshot{Time: 0},
			`{"nodes":null,"time":0}`,
		},
		{
			"link snapshot",
			LinkSnapshot{Time: 3, Links: []Link{{ID1: 1, ID2: 2}}},
			`{"links":[{"id1":1,"id2":2}],"time":3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalRoundTripsEnums(t *testing.T) {
	data, err := Canonical(GroupEvent{Time: 2, GID: 1, Type: GroupJoin, Members: []NodeID{3, 4}})
	require.NoError(t, err)

	var e GroupEvent
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, GroupJoin, e.Type)
	assert.Equal(t, []NodeID{3, 4}, e.Members)
}

func TestCanonicalInvalidEnum(t *testing.T) {
	_, err := Canonical(PresenceEvent{Time: 1, Node: 1})
	require.Error(t, err)
}
