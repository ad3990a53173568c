// Package hub fans dashboard updates out to websocket clients.
//
// One goroutine owns the client set. Clients register and unregister through
// channels and each client has its own buffered send queue drained by a
// single writer, so a slow browser never blocks the producer.
package hub

// Message is one broadcast payload, sent as a binary frame when Binary is
// set and as a text frame otherwise.
type Message struct {
	Data   []byte
	Binary bool
}

// Text wraps pre-encoded JSON or other text.
func Text(data []byte) Message {
	return Message{Data: data}
}

// Binary wraps raw bytes such as a JPEG preview.
func Binary(data []byte) Message {
	return Message{Data: data, Binary: true}
}
