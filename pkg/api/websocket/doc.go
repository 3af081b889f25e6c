// Package websocket streams item events to WebSocket clients.
package websocket
