package pricecache

import (
	"fmt"
	"strings"
)

const keySep = "-"

var (
	keyEscaper   = strings.NewReplacer("%", "%25", keySep, "%2D")
	keyUnescaper = strings.NewReplacer("%2D", keySep, "%25", "%")
)

// Key identifies a cached price. Empty ConnectorType means any connector and
// empty ClientID an anonymous caller.
type Key struct {
	StationID     string
	ConnectorType string
	ClientID      string
}

// Encode returns the persistent representation of the key. Each part is
// escaped so identifiers containing the separator cannot collide.
func (k Key) Encode() string {
	return keyEscaper.Replace(k.StationID) + keySep +
		keyEscaper.Replace(k.ConnectorType) + keySep +
		keyEscaper.Replace(k.ClientID)
}

// ParseKey decodes a key produced by Encode.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, keySep)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("malformed cache key %q", s)
	}
	return Key{
		StationID:     keyUnescaper.Replace(parts[0]),
		ConnectorType: keyUnescaper.Replace(parts[1]),
		ClientID:      keyUnescaper.Replace(parts[2]),
	}, nil
}

func (k Key) String() string {
	conn, client := k.ConnectorType, k.ClientID
	if conn == "" {
		conn = "any"
	}
	if client == "" {
		client = "guest"
	}
	return k.StationID + "/" + conn + "/" + client
}
