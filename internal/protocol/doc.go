// Package protocol implements the agent message envelope.
//
// Every frame on the wire is a JSON object
//
//	{ "id": "...", "label": "rtvi-ai", "type": "...", "data": {...}, "timestamp": 1700000000000 }
//
// where id, data and timestamp are optional on input. The reserved types are
// client-ready (handshake), ping and pong (latency probe). Every other type
// is opaque here and forwarded to the caller unchanged.
package protocol
