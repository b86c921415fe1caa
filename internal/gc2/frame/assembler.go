// Package frame reassembles USB chunks into complete device messages.
//
// The device emits ASCII text in fixed-size USB packets padded with NULs.
// A line ends with '\n'; a message ends with the two-byte sequence "\n\t".
// Lines never cross a message boundary, but both lines and the terminator
// may be split across chunks.
package frame

import (
	"strings"

	"github.com/okian/gc2link/pkg/metrics"
)

// Message tags the device uses. Anything else is ignored.
const (
	TagShot   = "0H"
	TagStatus = "0M"
)

// DefaultMaxBuffer bounds assembler memory against pathological devices.
const DefaultMaxBuffer = 16 * 1024

// Message is a group of lines delimited by the "\n\t" terminator.
type Message struct {
	Tag   string
	Lines []string // payload lines, header excluded

	// Partial marks a 0H message cut short by a 0M status interruption.
	// The shot state machine decides whether to salvage it.
	Partial bool
}

// Assembler concatenates USB chunks into lines and messages.
// Not safe for concurrent use; it is owned by the pipeline goroutine.
type Assembler struct {
	lineBuf  []byte
	msgTag   string
	msgLines []string
	msgSize  int

	// pendingTerm is set after a '\n'; a following '\t' closes the message.
	pendingTerm bool

	maxBuffer int
}

// NewAssembler creates an assembler with configuration options.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		maxBuffer: DefaultMaxBuffer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Push feeds one USB chunk and returns any messages completed by it.
// NUL padding bytes are stripped. On buffer overflow the assembler resets
// and returns ErrFraming alongside messages completed before the overflow.
func (a *Assembler) Push(chunk []byte) ([]Message, error) {
	var out []Message

	for _, b := range chunk {
		if b == 0 {
			continue
		}

		if a.pendingTerm {
			a.pendingTerm = false
			if b == '\t' {
				if m, ok := a.finishMessage(); ok {
					out = append(out, m)
				}
				continue
			}
		}

		if b == '\n' {
			if m, ok := a.commitLine(); ok {
				out = append(out, m)
			}
			a.pendingTerm = true
			continue
		}

		a.lineBuf = append(a.lineBuf, b)
		if len(a.lineBuf)+a.msgSize > a.maxBuffer {
			a.reset()
			metrics.RecordFramingError()
			return out, ErrFraming
		}
	}

	return out, nil
}

// commitLine moves the line buffer into the message under assembly, applying
// the device's preemption habits. It may emit a partial salvage candidate.
func (a *Assembler) commitLine() (Message, bool) {
	line := string(a.lineBuf)
	a.lineBuf = a.lineBuf[:0]

	token := firstToken(line)
	switch token {
	case TagShot:
		// A new shot header while a message is open means the device
		// abandoned the previous transmission: discard, do not flush.
		a.msgTag = TagShot
		a.msgLines = a.msgLines[:0]
		a.msgSize = 0
		return Message{}, false
	case TagStatus:
		// Status preempts a shot under assembly; the partial shot goes out
		// as a salvage candidate and the status assembles independently.
		var salvage Message
		emit := false
		if a.msgTag == TagShot && len(a.msgLines) > 0 {
			salvage = Message{Tag: TagShot, Lines: a.copyLines(), Partial: true}
			emit = true
		}
		a.msgTag = TagStatus
		a.msgLines = a.msgLines[:0]
		a.msgSize = 0
		return salvage, emit
	}

	if a.msgTag == "" {
		// Payload line with no open message: unknown tag territory, ignore.
		return Message{}, false
	}

	a.msgLines = append(a.msgLines, line)
	a.msgSize += len(line)
	return Message{}, false
}

// finishMessage closes the message under assembly on a "\n\t" terminator.
func (a *Assembler) finishMessage() (Message, bool) {
	if a.msgTag == "" {
		return Message{}, false
	}
	m := Message{Tag: a.msgTag, Lines: a.copyLines()}
	a.msgTag = ""
	a.msgLines = a.msgLines[:0]
	a.msgSize = 0
	return m, true
}

func (a *Assembler) copyLines() []string {
	lines := make([]string, len(a.msgLines))
	copy(lines, a.msgLines)
	return lines
}

func (a *Assembler) reset() {
	a.lineBuf = a.lineBuf[:0]
	a.msgTag = ""
	a.msgLines = a.msgLines[:0]
	a.msgSize = 0
	a.pendingTerm = false
}

func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
