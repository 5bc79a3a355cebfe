package pricecache

import (
	"encoding/json"
	"time"
)

// Entry is a persisted cache record.
type Entry[T any] struct {
	Key       string    `json:"key"`
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

func encodeEntry[T any](e Entry[T]) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry[T any](b []byte) (Entry[T], error) {
	var e Entry[T]
	err := json.Unmarshal(b, &e)
	return e, err
}

// header decodes only the bookkeeping fields of a record.
type header struct {
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

func decodeHeader(b []byte) (header, error) {
	var h header
	err := json.Unmarshal(b, &h)
	return h, err
}
