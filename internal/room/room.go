// Package room holds the shared chat state: users, rooms, and the registry
// that maps room names to rooms.
//
// Locking
// -------
//
//   - Registry.mu guards the name → Room map and is held only for
//     lookup-or-create.
//   - Room.mu guards one room's member set. Broadcast holds it for the whole
//     fan-out, so a concurrent join or leave lands entirely before or after.
//   - Each User's queue has its own lock (see package queue); enqueueing
//     never waits on a consumer, so holding Room.mu across it is safe.
package room

import (
	"sort"
	"sync"

	"chatrelay/internal/protocol"
)

// Room is a named broadcast group.
type Room struct {
	name string

	mu      sync.Mutex
	members map[*User]struct{}
}

func newRoom(name string) *Room {
	return &Room{
		name:    name,
		members: make(map[*User]struct{}),
	}
}

// Name returns the room name.
func (r *Room) Name() string { return r.name }

// AddMember inserts u. Adding a present member is a no-op.
func (r *Room) AddMember(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[u] = struct{}{}
}

// RemoveMember deletes u. Removing a non-member is a no-op.
func (r *Room) RemoveMember(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, u)
}

// Has reports whether u is a member.
func (r *Room) Has(u *User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[u]
	return ok
}

// Len returns the member count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns the sorted usernames of the current members.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.members))
	for u := range r.members {
		out = append(out, u.Username)
	}
	sort.Strings(out)
	return out
}

// Broadcast queues a delivery of text to every member whose username differs
// from sender and returns how many were queued.
func (r *Room) Broadcast(sender, text string) int {
	payload := protocol.DeliveryPayload(r.name, sender, text)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for u := range r.members {
		if u.Username == sender {
			continue
		}
		u.Queue.Enqueue(protocol.New(protocol.TagDelivery, payload))
		n++
	}
	return n
}
