// Package ring implements a power-of-two byte ring buffer used to
// stage streaming input and pending output for the rtsp package.
package ring

import (
	"github.com/openwfd/wfd/wfderr"
)

const initialSize = 4096

// Buffer is a growable byte ring. The zero value is an empty, unallocated
// buffer ready to use. A Buffer is owned by exactly one reader/writer pair
// (an rtsp.Decoder or rtsp.Control) and is not safe for concurrent use.
type Buffer struct {
	buf   []byte
	start int
	end   int
}

// mask returns v modulo the buffer's power-of-two size.
func (r *Buffer) mask(v int) int {
	return v & (len(r.buf) - 1)
}

// Length returns the number of readable bytes currently buffered.
func (r *Buffer) Length() int {
	if len(r.buf) == 0 {
		return 0
	}
	if r.end >= r.start {
		return r.end - r.start
	}
	return len(r.buf) - r.start + r.end
}

// freeLen returns the number of unused bytes in the backing array. grow
// keeps one of them in reserve so that start == end is never ambiguous
// with "full".
func (r *Buffer) freeLen() int {
	if len(r.buf) == 0 {
		return 0
	}
	if r.end < r.start {
		return r.start - r.end
	}
	return r.start + len(r.buf) - r.end
}

// nextPow2 returns the smallest power of two >= v, or 4096 if v is 0.
func nextPow2(v int) int {
	if v <= 0 {
		return initialSize
	}
	v--
	for i := 1; i < 64; i *= 2 {
		v |= v >> uint(i)
	}
	return v + 1
}

// grow ensures room for add more bytes, resizing (doubling until it fits)
// if necessary.
func (r *Buffer) grow(add int) error {
	free := r.freeLen()
	// free > add, not >=: start == end must stay unambiguous with empty.
	if free > add {
		return nil
	}

	needed := len(r.buf) + add - free + 1
	nsize := nextPow2(needed)
	if nsize <= len(r.buf) {
		return wfderr.New(wfderr.NoMemory, "ring: buffer size overflow")
	}
	return r.resize(nsize)
}

func (r *Buffer) resize(nsize int) error {
	nbuf := make([]byte, nsize)

	switch {
	case r.end == r.start:
		r.start, r.end = 0, 0
	case r.end > r.start:
		n := copy(nbuf, r.buf[r.start:r.end])
		r.end = n
		r.start = 0
	default:
		n := copy(nbuf, r.buf[r.start:])
		n += copy(nbuf[n:], r.buf[:r.end])
		r.end = n
		r.start = 0
	}

	r.buf = nbuf
	return nil
}

// Push appends data to the buffer, growing it if required.
func (r *Buffer) Push(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := r.grow(len(data)); err != nil {
		return err
	}

	if r.start <= r.end {
		l := len(r.buf) - r.end
		if l > len(data) {
			l = len(data)
		}
		copy(r.buf[r.end:], data[:l])
		r.end = r.mask(r.end + l)
		data = data[l:]
	}

	if len(data) == 0 {
		return nil
	}

	copy(r.buf[r.end:], data)
	r.end = r.mask(r.end + len(data))
	return nil
}

// Peek returns up to two contiguous slices describing the currently
// readable region, without copying. The returned slices alias the
// buffer's storage and are only valid until the next mutating call.
func (r *Buffer) Peek() [][]byte {
	switch {
	case r.end > r.start:
		return [][]byte{r.buf[r.start:r.end]}
	case r.end < r.start:
		if r.end == 0 {
			return [][]byte{r.buf[r.start:]}
		}
		return [][]byte{r.buf[r.start:], r.buf[:r.end]}
	default:
		return nil
	}
}

// Pull drops the oldest n bytes from the buffer. n is silently clamped
// to the available length.
func (r *Buffer) Pull(n int) {
	if n <= 0 || len(r.buf) == 0 {
		return
	}

	if r.start > r.end {
		l := len(r.buf) - r.start
		if l > n {
			l = n
		}
		r.start = r.mask(r.start + l)
		n -= l
	}

	if n == 0 {
		return
	}

	l := r.end - r.start
	if l > n {
		l = n
	}
	r.start = r.mask(r.start + l)
}

// Copy returns a newly allocated linear copy of up to limit bytes of the
// readable region. If limit is <= 0, no limit is applied. The result is
// never nil and is safe to retain past the Buffer's lifetime.
func (r *Buffer) Copy(limit int) []byte {
	slices := r.Peek()

	sum := 0
	for _, s := range slices {
		sum += len(s)
	}
	if limit > 0 && sum > limit {
		sum = limit
	}

	out := make([]byte, sum)
	n := 0
	for _, s := range slices {
		if n >= sum {
			break
		}
		c := copy(out[n:sum], s)
		n += c
	}
	return out
}

// CopyN returns a newly allocated linear copy of the first n bytes of the
// readable region, or of all of it if fewer than n bytes are buffered
// (n <= 0 yields an empty, non-nil slice). Unlike Copy, n <= 0 does not
// mean "no limit", matching callers that track precisely how many
// buffered bytes a completed line or body occupies.
func (r *Buffer) CopyN(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, 0, n)
	for _, s := range r.Peek() {
		if len(out) >= n {
			break
		}
		need := n - len(out)
		if need > len(s) {
			need = len(s)
		}
		out = append(out, s[:need]...)
	}
	return out
}

// Flush resets the read/write offsets without releasing backing storage.
func (r *Buffer) Flush() {
	r.start = 0
	r.end = 0
}

// Clear releases the backing storage entirely, returning the Buffer to
// its zero-value state.
func (r *Buffer) Clear() {
	r.buf = nil
	r.start = 0
	r.end = 0
}
