// Package client drives the relay protocol from the client side. The sender
// and receiver programs share it; it never touches the terminal.
package client

import (
	"errors"
	"fmt"
	"strings"

	"chatrelay/internal/protocol"
)

var (
	// ErrUnknownCommand is returned for a "/" word the sender does not know.
	ErrUnknownCommand = errors.New("client: unknown command")
	// ErrEmptyLine is returned for a blank input line.
	ErrEmptyLine = errors.New("client: empty line")
	// ErrMissingRoom is returned for "/join" without a room name.
	ErrMissingRoom = errors.New("client: usage: /join <room>")
	// ErrTooLong is returned when a line would exceed the wire limit.
	ErrTooLong = errors.New("client: message too long")
	// ErrUnexpectedTag is wrapped when the server answers with a tag the
	// client cannot use at that point.
	ErrUnexpectedTag = errors.New("client: unexpected reply")
)

// ServerError carries the note of an err reply.
type ServerError struct {
	Note string
}

func (e *ServerError) Error() string {
	return "server: " + e.Note
}

// receiveError describes a failed Receive on c.
func receiveError(c *protocol.Conn) error {
	if c.LastResult() == protocol.InvalidMessage {
		return fmt.Errorf("client: receive: %w", protocol.ErrInvalidMessage)
	}
	return errors.New("client: connection closed")
}

// send writes m, reporting transport failure as an error.
func send(c *protocol.Conn, m protocol.Message) error {
	if !m.Fits() {
		return ErrTooLong
	}
	if !c.Send(m) {
		return errors.New("client: connection closed")
	}
	return nil
}

// AwaitOK reads one reply and returns its note. An err reply becomes a
// *ServerError.
func AwaitOK(c *protocol.Conn) (string, error) {
	var m protocol.Message
	if !c.Receive(&m) {
		return "", receiveError(c)
	}
	switch m.Tag {
	case protocol.TagOK:
		return m.Payload, nil
	case protocol.TagErr:
		return "", &ServerError{Note: m.Payload}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedTag, m)
	}
}

// Login sends the handshake for role tag and waits for the server's answer.
func Login(c *protocol.Conn, tag protocol.Tag, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("client: username required")
	}
	if err := send(c, protocol.New(tag, username)); err != nil {
		return err
	}
	_, err := AwaitOK(c)
	return err
}

// ParseCommand turns one line of sender input into the message to send.
//
//	/join <room>   join
//	/leave         leave
//	/quit          quit
//	anything else  sendall
func ParseCommand(line string) (protocol.Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return protocol.Message{}, ErrEmptyLine
	}
	if !strings.HasPrefix(line, "/") {
		return protocol.New(protocol.TagSendAll, line), nil
	}

	word, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch word {
	case "/join":
		if arg == "" {
			return protocol.Message{}, ErrMissingRoom
		}
		return protocol.New(protocol.TagJoin, arg), nil
	case "/leave":
		return protocol.New(protocol.TagLeave, ""), nil
	case "/quit":
		return protocol.New(protocol.TagQuit, ""), nil
	default:
		return protocol.Message{}, ErrUnknownCommand
	}
}
