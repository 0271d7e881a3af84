package render

import "io"

// EventKind discriminates decoded input events.
type EventKind int

const (
	// PlainKey is a single non-escape byte.
	PlainKey EventKind = iota
	// EscapeSequence is an escape byte followed by the bytes read after it.
	EscapeSequence
)

// Event is one decoded unit of terminal input.
type Event struct {
	Kind EventKind
	Key  byte   // set for PlainKey
	Seq  []byte // set for EscapeSequence, excluding the leading escape byte
}

// IsScrollUp reports whether the event is an arrow-up sequence.
func (e Event) IsScrollUp() bool {
	return e.Kind == EscapeSequence && len(e.Seq) == 2 && e.Seq[0] == '[' && e.Seq[1] == 'A'
}

// IsScrollDown reports whether the event is an arrow-down sequence.
func (e Event) IsScrollDown() bool {
	return e.Kind == EscapeSequence && len(e.Seq) == 2 && e.Seq[0] == '[' && e.Seq[1] == 'B'
}

// ReadEvent decodes one input event from a raw-mode byte stream. An
// escape byte consumes the two bytes that follow it; anything else is a
// plain key.
func ReadEvent(r io.Reader) (Event, error) {
	b, err := readByte(r)
	if err != nil {
		return Event{}, err
	}
	if b != 0x1b {
		return Event{Kind: PlainKey, Key: b}, nil
	}

	seq := make([]byte, 0, 2)
	for len(seq) < 2 {
		next, err := readByte(r)
		if err != nil {
			break
		}
		seq = append(seq, next)
	}
	return Event{Kind: EscapeSequence, Seq: seq}, nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			return buf[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}
