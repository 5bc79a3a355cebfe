package pricecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEncodeParse(t *testing.T) {
	keys := []Key{
		{StationID: "st1"},
		{StationID: "st1", ConnectorType: "CCS2"},
		{StationID: "st1", ConnectorType: "Type2", ClientID: "6f1c2d9e-8a7b-4c3d-9e0f-1a2b3c4d5e6f"},
		{StationID: "50%-off", ConnectorType: "%2D", ClientID: "a-b"},
	}
	for _, k := range keys {
		got, err := ParseKey(k.Encode())
		require.NoError(t, err, k.String())
		assert.Equal(t, k, got)
	}
}

func TestKeyEncodeNoCollision(t *testing.T) {
	a := Key{StationID: "a-b", ConnectorType: "c"}
	b := Key{StationID: "a", ConnectorType: "b-c"}
	assert.NotEqual(t, a.Encode(), b.Encode())
}

func TestParseKeyMalformed(t *testing.T) {
	_, err := ParseKey("only-two")
	assert.Error(t, err)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "st1/any/guest", Key{StationID: "st1"}.String())
}
