package model

import "errors"

// ErrNotFound is returned by data sources and stores when a record does not exist.
var ErrNotFound = errors.New("not found")
