// Package output implements request-scoped output buffering for the page
// renderer: named capture scopes stacked over the response writer, each
// with a callback applied to its text when flushed.
package output

import (
	"bytes"
	"errors"
	"io"
)

var (
	// ErrOutputSent is returned by Start once bytes have reached the
	// underlying writer; a scope opened then could not capture them.
	ErrOutputSent = errors.New("output: output already sent")
	// ErrNoScope is returned by End for a scope that is not open.
	ErrNoScope = errors.New("output: no such scope")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("output: buffer closed")
)

// Callback transforms captured text before it is passed down.
type Callback func(string) string

type scope struct {
	name string
	cb   Callback
	buf  bytes.Buffer
}

// Buffer wraps the destination writer of one request. Writes go to the
// innermost open scope, or straight to the destination when none is open.
// A Buffer is not safe for concurrent use; it belongs to one request.
type Buffer struct {
	dst    io.Writer
	scopes []*scope
	sent   bool
	closed bool
}

// New returns a Buffer writing to dst.
func New(dst io.Writer) *Buffer {
	return &Buffer{dst: dst}
}

func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, ErrClosed
	}
	if n := len(b.scopes); n > 0 {
		return b.scopes[n-1].buf.Write(p)
	}
	if len(p) > 0 {
		b.sent = true
	}
	return b.dst.Write(p)
}

// Start opens a capture scope. Opening a scope whose name is already open
// is a no-op, so callers on several hooks can all ask for the same scope.
func (b *Buffer) Start(name string, cb Callback) error {
	if b.closed {
		return ErrClosed
	}
	if b.sent {
		return ErrOutputSent
	}
	if b.Active(name) {
		return nil
	}
	b.scopes = append(b.scopes, &scope{name: name, cb: cb})
	return nil
}

// Active reports whether the named scope is open.
func (b *Buffer) Active(name string) bool {
	for _, s := range b.scopes {
		if s.name == name {
			return true
		}
	}
	return false
}

// End closes the named scope and every scope opened after it, innermost
// first. Each closed scope's text goes through its callback and down to the
// next scope or the destination.
func (b *Buffer) End(name string) error {
	if b.closed {
		return ErrClosed
	}
	idx := -1
	for i, s := range b.scopes {
		if s.name == name {
			idx = i
		}
	}
	if idx < 0 {
		return ErrNoScope
	}
	for len(b.scopes) > idx {
		if err := b.pop(); err != nil {
			return err
		}
	}
	return nil
}

// Sent reports whether any bytes have reached the destination.
func (b *Buffer) Sent() bool {
	return b.sent
}

// Close releases every open scope and marks the Buffer closed. It is safe
// to call more than once.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	var err error
	for len(b.scopes) > 0 && err == nil {
		err = b.pop()
	}
	b.closed = true
	return err
}

func (b *Buffer) pop() error {
	n := len(b.scopes)
	top := b.scopes[n-1]
	b.scopes = b.scopes[:n-1]
	text := top.buf.String()
	if top.cb != nil {
		text = top.cb(text)
	}
	_, err := io.WriteString(b, text)
	return err
}
