// Package events provides event bus implementations.
//
// Implementations:
//   - memory: in-process handlers (default)
//   - redis: Redis Streams with consumer groups
//   - kafka: Kafka topics with consumer groups
package events
