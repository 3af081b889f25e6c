// Package domain holds the item registry's entities and error kinds.
package domain
