// Package protocol defines the wire format for all client-server communication.
// Each message is a single line of the form "tag:payload" terminated by '\n'.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// MaxLen is the longest encoded message allowed on the wire, including the
// trailing newline.
const MaxLen = 255

// Tag identifies what kind of message is being sent.
type Tag string

const (
	// Server → Client
	TagErr      Tag = "err"
	TagOK       Tag = "ok"
	TagDelivery Tag = "delivery"
	TagEmpty    Tag = "empty"

	// Client → Server
	TagSLogin   Tag = "slogin"
	TagRLogin   Tag = "rlogin"
	TagJoin     Tag = "join"
	TagLeave    Tag = "leave"
	TagSendAll  Tag = "sendall"
	TagSendUser Tag = "senduser"
	TagQuit     Tag = "quit"
)

var knownTags = map[Tag]struct{}{
	TagErr:      {},
	TagOK:       {},
	TagSLogin:   {},
	TagRLogin:   {},
	TagJoin:     {},
	TagLeave:    {},
	TagSendAll:  {},
	TagSendUser: {},
	TagQuit:     {},
	TagDelivery: {},
	TagEmpty:    {},
}

// Known reports whether t belongs to the closed tag vocabulary.
func (t Tag) Known() bool {
	_, ok := knownTags[t]
	return ok
}

// ErrInvalidMessage is wrapped by every Decode failure.
var ErrInvalidMessage = errors.New("protocol: invalid message")

// Message is one protocol line.
type Message struct {
	Tag     Tag
	Payload string
}

// New returns a Message for tag and payload.
func New(tag Tag, payload string) Message {
	return Message{Tag: tag, Payload: payload}
}

// Encode returns "tag:payload\n". The length is not checked; use Fits first
// when the payload comes from user input.
func (m Message) Encode() []byte {
	b := make([]byte, 0, m.Len())
	b = append(b, m.Tag...)
	b = append(b, ':')
	b = append(b, m.Payload...)
	return append(b, '\n')
}

// Len is the encoded length in bytes including the newline.
func (m Message) Len() int {
	return len(m.Tag) + 1 + len(m.Payload) + 1
}

// Fits reports whether the encoded message respects MaxLen.
func (m Message) Fits() bool {
	return m.Len() <= MaxLen
}

func (m Message) String() string {
	return string(m.Tag) + ":" + m.Payload
}

// Decode parses one line, terminator included. Tag and payload are trimmed
// of surrounding whitespace.
func Decode(line []byte) (Message, error) {
	if len(line) > MaxLen {
		return Message{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidMessage, len(line), MaxLen)
	}

	var body []byte
	switch {
	case bytes.HasSuffix(line, []byte("\r\n")):
		body = line[:len(line)-2]
	case bytes.HasSuffix(line, []byte("\n")):
		body = line[:len(line)-1]
	default:
		return Message{}, fmt.Errorf("%w: missing line terminator", ErrInvalidMessage)
	}
	if bytes.ContainsAny(body, "\r\n") {
		return Message{}, fmt.Errorf("%w: embedded line terminator", ErrInvalidMessage)
	}

	i := bytes.IndexByte(body, ':')
	if i < 0 {
		return Message{}, fmt.Errorf("%w: missing tag separator", ErrInvalidMessage)
	}
	tag := Tag(body[:i])
	if !tag.Known() {
		return Message{}, fmt.Errorf("%w: unknown tag %q", ErrInvalidMessage, string(tag))
	}

	return Message{
		Tag:     Tag(strings.TrimSpace(string(tag))),
		Payload: strings.TrimSpace(string(body[i+1:])),
	}, nil
}

// DeliveryPayload builds the payload of a delivery message.
func DeliveryPayload(room, sender, text string) string {
	return room + ":" + sender + ":" + text
}

// ParseDelivery splits a delivery payload at its first two colons. Colons
// inside room or sender names are not escaped, so such names do not survive.
func ParseDelivery(payload string) (room, sender, text string, ok bool) {
	room, rest, ok := strings.Cut(payload, ":")
	if !ok {
		return "", "", "", false
	}
	sender, text, ok = strings.Cut(rest, ":")
	if !ok {
		return "", "", "", false
	}
	return room, sender, text, true
}
