// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package io provides the byte buffer the decoder pulls instructions from,
// and the raw memory image writer used after execution.
package io

import (
	"io"
)

const (
	BUFFER_SIZE = 1024 * 1024     // Capacity of an instruction buffer.
	BUFFER_MASK = BUFFER_SIZE - 1 // Mask applied to the loaded byte count.
)

// Buffer is a fixed capacity byte buffer with a read cursor.
// Only the first Loaded bytes are valid.
type Buffer struct {
	Data   []byte // Backing store, BUFFER_SIZE bytes.
	Loaded int    // Count of valid bytes.

	cursor int
}

// NewBuffer creates an empty buffer.
func NewBuffer() (buf *Buffer) {
	buf = &Buffer{
		Data: make([]byte, BUFFER_SIZE),
	}

	return
}

// Load reads a stream of the given size into the buffer.
// Only size modulo BUFFER_SIZE bytes are considered valid.
func (buf *Buffer) Load(input io.Reader, size int64) (err error) {
	if buf.Data == nil {
		buf.Data = make([]byte, BUFFER_SIZE)
	}

	clear(buf.Data)
	buf.cursor = 0
	buf.Loaded = int(size) & BUFFER_MASK

	_, err = io.ReadFull(input, buf.Data[:buf.Loaded])

	return
}

// LoadBytes copies code into the buffer, with the same size rule as Load.
func (buf *Buffer) LoadBytes(code []byte) {
	if buf.Data == nil {
		buf.Data = make([]byte, BUFFER_SIZE)
	}

	clear(buf.Data)
	buf.cursor = 0
	buf.Loaded = len(code) & BUFFER_MASK
	copy(buf.Data, code[:buf.Loaded])
}

// Bytes returns the valid bytes of the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.Data[:buf.Loaded]
}

// Rewind moves the cursor back to the first byte.
func (buf *Buffer) Rewind() {
	buf.cursor = 0
}

// Offset returns the cursor position.
func (buf *Buffer) Offset() int {
	return buf.cursor
}

// AtEnd is true when no valid bytes remain.
func (buf *Buffer) AtEnd() bool {
	return buf.cursor >= buf.Loaded
}

// NextBytes returns the next n bytes and advances the cursor.
// The returned slice aliases the buffer.
func (buf *Buffer) NextBytes(n int) (data []byte, err error) {
	end := buf.cursor + n
	if n < 0 || end > buf.Loaded {
		err = ErrBufferEnd
		return
	}

	data = buf.Data[buf.cursor:end]
	buf.cursor = end

	return
}

// NextByte returns the next byte and advances the cursor.
func (buf *Buffer) NextByte() (value byte, err error) {
	data, err := buf.NextBytes(1)
	if err != nil {
		return
	}

	value = data[0]
	return
}

// JumpBy moves the cursor by a signed offset.
// The target must lie within the loaded bytes; landing exactly on the end is
// permitted and terminates execution.
func (buf *Buffer) JumpBy(offset int) (err error) {
	target := buf.cursor + offset
	switch {
	case target < 0:
		err = ErrCursorNegative
	case target > buf.Loaded:
		err = ErrCursorRange
	default:
		buf.cursor = target
	}

	return
}
