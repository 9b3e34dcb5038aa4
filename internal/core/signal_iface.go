package core

// Frame is a raw encoded wire message.
type Frame []byte
