// Package items implements the item registry's application logic.
//
// The manager serves the four registry operations (health, create, get,
// mark-done) by:
//   - Delegating reads and writes to the item store
//   - Publishing item events to the event bus after successful changes
//   - Recording operation metrics and logs
//
// Store errors are returned wrapped, so callers match them with errors.Is
// against domain.ErrConflict and domain.ErrNotFound.
package items
