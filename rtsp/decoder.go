package rtsp

import (
	"strconv"
	"strings"

	"github.com/openwfd/wfd/ring"
	"github.com/openwfd/wfd/wfderr"
)

type decState int

const (
	stateNew decState = iota
	stateHeader
	stateHeaderNL
	stateBody
)

// Decoder is a stateful streaming RTSP message framer. Bytes are fed in
// arbitrary chunks; Decoder buffers them in a RingBuffer and delivers
// each fully-framed Message to its Sink as soon as it completes.
//
// Decoder is not safe for concurrent use.
type Decoder struct {
	data interface{}
	sink Sink

	ring          ring.Buffer
	state         decState
	lastChr       byte
	haveLastChr   bool
	remainingBody int

	msg Message
}

// New returns a Decoder that delivers completed messages to sink.
func New(sink Sink) *Decoder {
	return &Decoder{sink: sink}
}

// SetData attaches an opaque value to the decoder for later retrieval.
func (d *Decoder) SetData(data interface{}) { d.data = data }

// GetData returns the value last passed to SetData.
func (d *Decoder) GetData() interface{} { return d.data }

// Flush discards any partially-decoded message and returns the decoder
// to its initial state.
func (d *Decoder) Flush() {
	d.ring.Flush()
	d.state = stateNew
	d.haveLastChr = false
	d.lastChr = 0
	d.remainingBody = 0
	d.msg = Message{}
}

// Feed appends buf to the decoder's input and processes as many bytes
// as form complete messages, delivering each to the Sink. On error the
// ring buffer is left in an indeterminate state and is implicitly
// flushed before Feed returns.
func (d *Decoder) Feed(buf []byte) error {
	rlen := d.ring.Length()
	if err := d.ring.Push(buf); err != nil {
		d.Flush()
		return wfderr.Wrap(wfderr.NoMemory, err, "rtsp: decoder buffer push failed")
	}

	for _, ch := range buf {
		l, err := d.feedChar(ch, rlen)
		if err != nil {
			d.Flush()
			return err
		}
		rlen = l
		d.lastChr = ch
		d.haveLastChr = true
	}

	return nil
}

func (d *Decoder) feedChar(ch byte, rlen int) (int, error) {
	switch d.state {
	case stateNew:
		return d.feedCharNew(ch, rlen), nil
	case stateHeader:
		return d.feedCharHeader(ch, rlen)
	case stateHeaderNL:
		return d.feedCharHeaderNL(ch, rlen)
	case stateBody:
		return d.feedCharBody(ch, rlen)
	default:
		return rlen, nil
	}
}

func (d *Decoder) feedCharNew(ch byte, rlen int) int {
	switch ch {
	case '\r', '\n', '\t', ' ':
		// No message has started yet: ignore leading linear
		// whitespace between messages for compatibility.
		return rlen + 1
	default:
		d.state = stateHeader
		d.remainingBody = 0
		d.ring.Pull(rlen)
		return 1
	}
}

func (d *Decoder) feedCharHeader(ch byte, rlen int) (int, error) {
	switch ch {
	case '\r':
		if d.haveLastChr && (d.lastChr == '\r' || d.lastChr == '\n') {
			// \r\r or \n\r: an empty line. Might still be
			// completed as \r\n, so wait one more byte in
			// HEADER_NL; but if there's no body to wait for,
			// the message is already complete.
			d.state = stateHeaderNL
			if err := d.finishHeaderLine(rlen); err != nil {
				return 0, err
			}
			rlen = 0
			if d.remainingBody == 0 {
				d.msgDone()
			}
			return rlen + 1, nil
		}
		return rlen + 1, nil
	case '\n':
		if d.haveLastChr && d.lastChr == '\n' {
			// \n\n: finish the line (not including the second
			// \n) and either deliver or move to the body.
			if err := d.finishHeaderLine(rlen); err != nil {
				return 0, err
			}
			rlen = 0
			d.state = stateBody
			if d.remainingBody == 0 {
				d.state = stateNew
				d.msgDone()
			}
			d.ring.Pull(1)
			return rlen, nil
		}
		// \r\n, or a lone \n: might be a continuation line, wait.
		return rlen + 1, nil
	case '\t', ' ':
		return rlen + 1, nil
	default:
		if d.haveLastChr && (d.lastChr == '\r' || d.lastChr == '\n') {
			if err := d.finishHeaderLine(rlen); err != nil {
				return 0, err
			}
			rlen = 0
		}
		return rlen + 1, nil
	}
}

func (d *Decoder) feedCharHeaderNL(ch byte, rlen int) (int, error) {
	// One-byte grace state after a \r that ended an empty line. A \n
	// completes an empty header terminator; anything else is the
	// first byte of the body.
	if ch == '\n' {
		d.ring.Pull(rlen + 1)
		d.state = stateBody
		if d.remainingBody == 0 {
			d.state = stateNew
		}
		return 0, nil
	}

	d.ring.Pull(rlen)
	d.state = stateBody
	return d.feedCharBody(ch, 0)
}

func (d *Decoder) feedCharBody(ch byte, rlen int) (int, error) {
	if d.remainingBody == 0 {
		d.state = stateNew
		return d.feedCharNew(ch, rlen), nil
	}

	rlen++
	d.remainingBody--
	if d.remainingBody == 0 {
		d.msg.Body = d.ring.CopyN(rlen)
		d.msgDone()
		d.state = stateNew
		d.ring.Pull(rlen)
		rlen = 0
	}
	return rlen, nil
}

func (d *Decoder) finishHeaderLine(rlen int) error {
	line := d.ring.CopyN(rlen)
	d.ring.Pull(rlen)

	line = sanitizeHeaderLine(line)
	if err := d.parseHeaderLine(line); err != nil {
		return err
	}
	d.msg.Header = append(d.msg.Header, string(line))
	return nil
}

// sanitizeHeaderLine replaces \r, \n and \t with a space, drops binary
// zeros, and collapses runs of spaces. The line-ending bytes that
// triggered completion of this line are included in the raw input and
// always normalize to trailing space(s); since a header line can never
// usefully end in whitespace, those are trimmed off too.
func sanitizeHeaderLine(line []byte) []byte {
	out := line[:0]
	var lastSpace bool
	for _, c := range line {
		if c == 0 {
			continue
		}
		if c == '\r' || c == '\n' || c == '\t' {
			c = ' '
		}
		if c == ' ' && lastSpace {
			continue
		}
		lastSpace = c == ' '
		out = append(out, c)
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return out
}

// parseHeaderLine scans for a case-insensitive Content-Length header
// and records its value as remainingBody. Conflicting values across
// multiple Content-Length headers in the same message are an error.
func (d *Decoder) parseHeaderLine(line []byte) error {
	const prefix = "content-length:"
	s := string(line)
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return nil
	}

	val := strings.TrimSpace(s[len(prefix):])
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return wfderr.Wrap(wfderr.ParseError, err, "rtsp: malformed Content-Length")
	}

	if d.remainingBody != 0 && d.remainingBody != int(n) {
		return wfderr.New(wfderr.ParseError, "rtsp: conflicting Content-Length headers")
	}
	d.remainingBody = int(n)
	return nil
}

func (d *Decoder) msgDone() {
	if d.sink != nil {
		d.sink(&d.msg)
	}
	d.msg = Message{}
}
