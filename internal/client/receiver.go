package client

import (
	"errors"
	"fmt"

	"chatrelay/internal/protocol"
)

// Delivery is one chat line relayed by the server.
type Delivery struct {
	Room   string
	Sender string
	Text   string
}

func (d Delivery) String() string {
	return d.Sender + ": " + d.Text
}

// Receiver is the reading side of a user's session. After Join it only
// reads; the server never expects another message from it.
type Receiver struct {
	conn *protocol.Conn
	room string
}

// NewReceiver wraps an open connection.
func NewReceiver(conn *protocol.Conn) *Receiver {
	return &Receiver{conn: conn}
}

// Login identifies the connection as a receiver.
func (r *Receiver) Login(username string) error {
	return Login(r.conn, protocol.TagRLogin, username)
}

// Join subscribes to room. It may be called once.
func (r *Receiver) Join(room string) error {
	if room == "" {
		return ErrMissingRoom
	}
	if err := send(r.conn, protocol.New(protocol.TagJoin, room)); err != nil {
		return err
	}
	if _, err := AwaitOK(r.conn); err != nil {
		return err
	}
	r.room = room
	return nil
}

// Room returns the joined room.
func (r *Receiver) Room() string { return r.room }

// Next blocks until a delivery for the joined room arrives. Deliveries for
// other rooms are dropped. An err reply, any other tag, or a broken stream
// ends the session with an error.
func (r *Receiver) Next() (Delivery, error) {
	if r.room == "" {
		return Delivery{}, errors.New("client: Next called before Join")
	}
	var m protocol.Message
	for {
		if !r.conn.Receive(&m) {
			return Delivery{}, receiveError(r.conn)
		}
		switch m.Tag {
		case protocol.TagDelivery:
		case protocol.TagErr:
			return Delivery{}, &ServerError{Note: m.Payload}
		default:
			return Delivery{}, fmt.Errorf("%w: %s", ErrUnexpectedTag, m)
		}

		room, sender, text, ok := protocol.ParseDelivery(m.Payload)
		if !ok {
			return Delivery{}, fmt.Errorf("client: malformed delivery %q: %w", m.Payload, protocol.ErrInvalidMessage)
		}
		if room != r.room {
			continue
		}
		return Delivery{Room: room, Sender: sender, Text: text}, nil
	}
}

// Close closes the connection.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
