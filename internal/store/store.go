// Package store persists the shop catalog: categories and the products that
// reference them.
package store

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)
