package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type connEntry struct {
	User    domain.UserID
	Session core.SignalConnection
	Rooms   map[domain.RoomID]struct{}
}

// Registry is the single process-wide table of live connections and the
// rooms each one has joined. Every mutation goes through here under one
// lock, so join/leave are atomic relative to the membership snapshot a
// broadcast takes.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
	// rooms is an index from room id to member connection ids, kept in
	// step with the per-connection sets so MembersOf costs room size,
	// not total connection count.
	rooms map[domain.RoomID]map[domain.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*connEntry),
		rooms: make(map[domain.RoomID]map[domain.ConnID]struct{}),
	}
}

// Register inserts a new connection. Callers register exactly once, right
// after authentication succeeds.
func (r *Registry) Register(cid domain.ConnID, user domain.UserID, sess core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{
		User:    user,
		Session: sess,
		Rooms:   make(map[domain.RoomID]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(user)).Msg("registered connection")
}

// Unregister removes a connection and all its room memberships. Calling it
// for an unknown or already-removed connection is a no-op, so duplicate
// close events are harmless.
func (r *Registry) Unregister(cid domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return
	}
	for room := range e.Rooms {
		r.dropFromIndex(room, cid)
	}
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("unregistered connection")
}

// JoinRoom adds the room to the connection's set. Idempotent; joining an
// already-joined room changes nothing. Returns false if the connection is
// not registered (late command after close).
func (r *Registry) JoinRoom(cid domain.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	if _, joined := e.Rooms[room]; joined {
		return true
	}
	e.Rooms[room] = struct{}{}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[domain.ConnID]struct{})
		r.rooms[room] = members
	}
	members[cid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("room", string(room)).Msg("joined room")
	return true
}

// LeaveRoom removes the room from the connection's set. Leaving a room
// never joined is a no-op.
func (r *Registry) LeaveRoom(cid domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return
	}
	if _, joined := e.Rooms[room]; !joined {
		return
	}
	delete(e.Rooms, room)
	r.dropFromIndex(room, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("room", string(room)).Msg("left room")
}

// MembersOf returns a snapshot of the connections currently in the room.
func (r *Registry) MembersOf(room domain.RoomID) []core.MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.rooms[room]
	out := make([]core.MemberSnap, 0, len(ids))
	for cid := range ids {
		if e, ok := r.conns[cid]; ok {
			out = append(out, core.MemberSnap{CID: cid, User: e.User, Session: e.Session})
		}
	}
	return out
}

// Session returns the transport endpoint for a connection, if still live.
func (r *Registry) Session(cid domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Session, true
	}
	return nil, false
}

// Rooms reports the connection's current room set.
func (r *Registry) Rooms(cid domain.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for room := range e.Rooms {
		out = append(out, room)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every live session. Used on shutdown; the per-connection
// close paths then unregister as usual.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	sessions := make([]core.SignalConnection, 0, len(r.conns))
	for _, e := range r.conns {
		sessions = append(sessions, e.Session)
	}
	r.mu.RUnlock()
	for _, s := range sessions {
		s.Close()
	}
}

// dropFromIndex removes cid from the room index entry, deleting the entry
// when it empties. Caller holds the write lock.
func (r *Registry) dropFromIndex(room domain.RoomID, cid domain.ConnID) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, cid)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
