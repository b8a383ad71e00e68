package camera

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoFrame means the capture side has not produced a fresh frame yet.
	ErrNoFrame = errors.New("no frame available")
	// ErrFrameBorrowed means a lent frame has not been returned yet. The
	// pool lends to at most one borrower at a time.
	ErrFrameBorrowed = errors.New("a frame is already borrowed")
)

// staleAfter guards against a dead capture process leaving the last frame
// in place forever.
const staleAfter = 5 * time.Second

// maxSpareBuffers caps the freelist of recycled capture buffers.
const maxSpareBuffers = 4

// Pool is the bounded hand-off point between the capture side and a single
// consumer. The capture side deposits the newest frame with Fill; Acquire
// lends it out. Buffers cycle through a small freelist instead of being
// reallocated per frame.
type Pool struct {
	mu       sync.Mutex
	latest   *RawFrame
	filledAt time.Time
	borrowed bool
	spare    [][]byte

	now func() time.Time
}

func NewPool() *Pool {
	return &Pool{now: time.Now}
}

// Fill copies data into a pool buffer and makes it the latest frame,
// replacing any unconsumed predecessor. It never blocks the capture side.
func (p *Pool) Fill(data []byte, format PixelFormat, width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf []byte
	if n := len(p.spare); n > 0 {
		buf = p.spare[n-1][:0]
		p.spare = p.spare[:n-1]
	}
	buf = append(buf, data...)

	if p.latest != nil {
		p.recycle(p.latest.Data)
	}
	p.latest = &RawFrame{
		Data:   buf,
		Format: format,
		Width:  width,
		Height: height,
		pool:   p,
	}
	p.filledAt = p.now()
}

// Acquire lends out the latest frame. It fails when no fresh frame exists
// or when a previously lent frame has not been returned.
func (p *Pool) Acquire() (*RawFrame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.borrowed {
		return nil, ErrFrameBorrowed
	}
	if p.latest == nil {
		return nil, ErrNoFrame
	}
	if p.now().Sub(p.filledAt) > staleAfter {
		p.recycle(p.latest.Data)
		p.latest = nil
		return nil, ErrNoFrame
	}

	f := p.latest
	p.latest = nil
	p.borrowed = true
	return f, nil
}

func (p *Pool) release(f *RawFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.borrowed = false
	p.recycle(f.Data)
	f.Data = nil
}

// recycle must be called with the lock held.
func (p *Pool) recycle(buf []byte) {
	if buf != nil && len(p.spare) < maxSpareBuffers {
		p.spare = append(p.spare, buf)
	}
}
