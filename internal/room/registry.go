package room

import (
	"sort"
	"sync"
)

// Registry maps room names to rooms. Rooms are created on first use and are
// never removed.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// FindOrCreate returns the room called name, creating it if needed. Every
// caller asking for the same name gets the same *Room.
func (g *Registry) FindOrCreate(name string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[name]; ok {
		return r
	}
	r := newRoom(name)
	g.rooms[name] = r
	return r
}

// Lookup returns the room called name without creating it.
func (g *Registry) Lookup(name string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[name]
	return r, ok
}

// Len returns the number of rooms ever created.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Names returns the sorted room names.
func (g *Registry) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.rooms))
	for name := range g.rooms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Join moves u out of its current room, if any, and into the room called
// name. It must only be called by the goroutine that owns u.
func (g *Registry) Join(u *User, name string) *Room {
	g.Leave(u)
	r := g.FindOrCreate(name)
	r.AddMember(u)
	u.room = name
	return r
}

// Leave removes u from its current room. It is a no-op when u is in none.
func (g *Registry) Leave(u *User) {
	if u.room == "" {
		return
	}
	if r, ok := g.Lookup(u.room); ok {
		r.RemoveMember(u)
	}
	u.room = ""
}
