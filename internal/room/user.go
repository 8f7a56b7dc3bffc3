package room

import "chatrelay/internal/queue"

// User is one logged-in connection's identity. The room name is a lookup key
// into the Registry; only the owning worker changes it, through Registry.Join
// and Registry.Leave.
type User struct {
	Username string
	Queue    *queue.Queue

	room string
}

// NewUser returns a User with an empty delivery queue.
func NewUser(username string) *User {
	return NewUserWithQueue(username, queue.New())
}

// NewUserWithQueue returns a User that delivers through q.
func NewUserWithQueue(username string, q *queue.Queue) *User {
	return &User{Username: username, Queue: q}
}

// Room returns the name of the room the user is in, or "" for none.
func (u *User) Room() string {
	return u.room
}

// InRoom reports whether the user has joined a room.
func (u *User) InRoom() bool {
	return u.room != ""
}
