package domain

import "errors"

var (
	// ErrConflict is returned when creating an item whose ID is already registered.
	ErrConflict = errors.New("item exists")

	// ErrNotFound is returned when referencing an item ID that is not registered.
	ErrNotFound = errors.New("not found")
)

// Item is a todo record. ID is caller supplied and acts as the primary key.
type Item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}
