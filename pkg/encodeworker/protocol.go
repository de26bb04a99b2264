// Package encodeworker implements the remote side of the encoder channel and
// the message protocol spoken between the channel and its worker.
package encodeworker

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"
)

// MessageType identifies a protocol message.
type MessageType int

const (
	MsgInit MessageType = iota + 1
	MsgEncode
	MsgReady
	MsgProgress
	MsgComplete
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgInit:
		return "INIT"
	case MsgEncode:
		return "ENCODE"
	case MsgReady:
		return "READY"
	case MsgProgress:
		return "PROGRESS"
	case MsgComplete:
		return "COMPLETE"
	case MsgError:
		return "ERROR"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// StageEncoding tags PROGRESS messages sent while the codec runs.
const StageEncoding = "encoding"

// Message is a request to or a reply from the worker. Replies carry the ID of
// the request they answer.
type Message struct {
	Type MessageType
	ID   string

	// ENCODE
	Width      int
	Height     int
	FrameCount int
	FPS        int
	Quality    int

	// ENCODE payload, COMPLETE result
	Data []byte

	// PROGRESS
	Percent int
	Stage   string

	// ERROR
	Error string
}

// Field numbers of the wire encoding.
const (
	fieldType       protowire.Number = 1
	fieldID         protowire.Number = 2
	fieldWidth      protowire.Number = 3
	fieldHeight     protowire.Number = 4
	fieldFrameCount protowire.Number = 5
	fieldFPS        protowire.Number = 6
	fieldQuality    protowire.Number = 7
	fieldData       protowire.Number = 8
	fieldPercent    protowire.Number = 9
	fieldError      protowire.Number = 10
	fieldStage      protowire.Number = 11
)

// MaxFrameSize bounds a single framed message.
const MaxFrameSize = 1 << 31

var (
	// ErrFrameTooLarge is returned for frames above MaxFrameSize.
	ErrFrameTooLarge = errors.New("encodeworker: frame too large")
	// ErrMalformed is returned for undecodable messages.
	ErrMalformed = errors.New("encodeworker: malformed message")
)

// Marshal encodes msg in protobuf wire format.
func Marshal(msg Message) []byte {
	b := make([]byte, 0, 64+len(msg.Data))
	b = appendVarint(b, fieldType, uint64(msg.Type))
	if msg.ID != "" {
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendString(b, msg.ID)
	}
	b = appendVarint(b, fieldWidth, uint64(msg.Width))
	b = appendVarint(b, fieldHeight, uint64(msg.Height))
	b = appendVarint(b, fieldFrameCount, uint64(msg.FrameCount))
	b = appendVarint(b, fieldFPS, uint64(msg.FPS))
	b = appendVarint(b, fieldQuality, uint64(msg.Quality))
	if len(msg.Data) > 0 {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.Data)
	}
	b = appendVarint(b, fieldPercent, uint64(msg.Percent))
	if msg.Error != "" {
		b = protowire.AppendTag(b, fieldError, protowire.BytesType)
		b = protowire.AppendString(b, msg.Error)
	}
	if msg.Stage != "" {
		b = protowire.AppendTag(b, fieldStage, protowire.BytesType)
		b = protowire.AppendString(b, msg.Stage)
	}
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// Unmarshal decodes a message. Unknown fields are skipped. Data aliases b.
func Unmarshal(b []byte) (Message, error) {
	var msg Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && isVarintField(num):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			setVarint(&msg, num, int(v))
		case typ == protowire.BytesType && isBytesField(num):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			setBytes(&msg, num, v)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Message{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return msg, nil
}

func isVarintField(num protowire.Number) bool {
	switch num {
	case fieldType, fieldWidth, fieldHeight, fieldFrameCount, fieldFPS, fieldQuality, fieldPercent:
		return true
	}
	return false
}

func isBytesField(num protowire.Number) bool {
	switch num {
	case fieldID, fieldData, fieldError, fieldStage:
		return true
	}
	return false
}

func setVarint(msg *Message, num protowire.Number, v int) {
	switch num {
	case fieldType:
		msg.Type = MessageType(v)
	case fieldWidth:
		msg.Width = v
	case fieldHeight:
		msg.Height = v
	case fieldFrameCount:
		msg.FrameCount = v
	case fieldFPS:
		msg.FPS = v
	case fieldQuality:
		msg.Quality = v
	case fieldPercent:
		msg.Percent = v
	}
}

func setBytes(msg *Message, num protowire.Number, v []byte) {
	switch num {
	case fieldID:
		msg.ID = string(v)
	case fieldData:
		msg.Data = v
	case fieldError:
		msg.Error = string(v)
	case fieldStage:
		msg.Stage = string(v)
	}
}

// Encoder writes length-prefixed messages. It is safe for concurrent use.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Send writes one framed message.
func (e *Encoder) Send(msg Message) error {
	payload := Marshal(msg)
	header := protowire.AppendVarint(nil, uint64(len(payload)))

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(header); err != nil {
		return err
	}
	_, err := e.w.Write(payload)
	return err
}

// Decoder reads length-prefixed messages.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Receive reads the next message. It returns io.EOF at a clean end of stream.
func (d *Decoder) Receive() (Message, error) {
	size, err := binary.ReadUvarint(d.r)
	if err != nil {
		return Message{}, err
	}
	if size > MaxFrameSize {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, err
	}
	return Unmarshal(payload)
}
