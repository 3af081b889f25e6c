// Package storage provides item store implementations.
//
// Implementations:
//   - memory: mutex-guarded map, the process-local item registry
package storage
