package client

import (
	"chatrelay/internal/protocol"
)

// Sender is the posting side of a user's session. Every command is answered
// by exactly one ok or err reply before the next one is sent.
type Sender struct {
	conn     *protocol.Conn
	username string
	room     string
}

// NewSender wraps an open connection.
func NewSender(conn *protocol.Conn) *Sender {
	return &Sender{conn: conn}
}

// Login identifies the connection as a sender.
func (s *Sender) Login(username string) error {
	if err := Login(s.conn, protocol.TagSLogin, username); err != nil {
		return err
	}
	s.username = username
	return nil
}

// Username returns the name given to Login.
func (s *Sender) Username() string { return s.username }

// Room returns the room the server last confirmed, or "".
func (s *Sender) Room() string { return s.room }

// Do sends m and waits for the reply. A *ServerError leaves the session
// usable; any other error means the connection is gone.
func (s *Sender) Do(m protocol.Message) (string, error) {
	if err := send(s.conn, m); err != nil {
		return "", err
	}
	note, err := AwaitOK(s.conn)
	if err != nil {
		return "", err
	}
	switch m.Tag {
	case protocol.TagJoin:
		s.room = m.Payload
	case protocol.TagLeave, protocol.TagQuit:
		s.room = ""
	}
	return note, nil
}

// Exec parses one input line and runs it.
func (s *Sender) Exec(line string) (protocol.Message, string, error) {
	m, err := ParseCommand(line)
	if err != nil {
		return m, "", err
	}
	note, err := s.Do(m)
	return m, note, err
}

// Close closes the connection.
func (s *Sender) Close() error {
	return s.conn.Close()
}
