package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// fakeSession records frames instead of writing to a socket.
type fakeSession struct {
	mu       sync.Mutex
	frames   []core.Frame
	closed   bool
	failSend bool
}

func (s *fakeSession) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return assert.AnError
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) sent() []core.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	cid := domain.NewConnID()

	r.Register(cid, "u1", &fakeSession{})
	assert.Equal(t, 1, r.Count())

	r.Unregister(cid)
	assert.Equal(t, 0, r.Count())
	_, ok := r.Session(cid)
	assert.False(t, ok)

	// Duplicate close events are a no-op.
	r.Unregister(cid)
	r.Unregister("never-registered")
	assert.Equal(t, 0, r.Count())
}

func TestJoinRoomIdempotent(t *testing.T) {
	r := NewRegistry()
	cid := domain.NewConnID()
	r.Register(cid, "u1", &fakeSession{})

	require.True(t, r.JoinRoom(cid, "r1"))
	require.True(t, r.JoinRoom(cid, "r1"))

	assert.Equal(t, []domain.RoomID{"r1"}, r.Rooms(cid))
	assert.Len(t, r.MembersOf("r1"), 1)
}

func TestJoinRoomUnknownConnection(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.JoinRoom("ghost", "r1"))
	assert.Empty(t, r.MembersOf("r1"))
}

func TestLeaveRoomNeverJoined(t *testing.T) {
	r := NewRegistry()
	cid := domain.NewConnID()
	r.Register(cid, "u1", &fakeSession{})

	r.LeaveRoom(cid, "r1")
	r.LeaveRoom("ghost", "r1")
	assert.Empty(t, r.Rooms(cid))
}

func TestLeaveRoomRemovesMembership(t *testing.T) {
	r := NewRegistry()
	cid := domain.NewConnID()
	r.Register(cid, "u1", &fakeSession{})
	r.JoinRoom(cid, "r1")
	r.JoinRoom(cid, "r2")

	r.LeaveRoom(cid, "r1")

	assert.Empty(t, r.MembersOf("r1"))
	assert.Len(t, r.MembersOf("r2"), 1)
	assert.Equal(t, []domain.RoomID{"r2"}, r.Rooms(cid))
}

func TestUnregisterCleansRoomIndex(t *testing.T) {
	r := NewRegistry()
	cid := domain.NewConnID()
	other := domain.NewConnID()
	r.Register(cid, "u1", &fakeSession{})
	r.Register(other, "u2", &fakeSession{})
	r.JoinRoom(cid, "r1")
	r.JoinRoom(other, "r1")

	r.Unregister(cid)

	members := r.MembersOf("r1")
	require.Len(t, members, 1)
	assert.Equal(t, other, members[0].CID)
}

func TestMembersOfReportsSubject(t *testing.T) {
	r := NewRegistry()
	cid := domain.NewConnID()
	r.Register(cid, "u1", &fakeSession{})
	r.JoinRoom(cid, "r1")

	members := r.MembersOf("r1")
	require.Len(t, members, 1)
	assert.Equal(t, domain.UserID("u1"), members[0].User)
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cid := domain.NewConnID()
			r.Register(cid, "u1", &fakeSession{})
			for j := 0; j < 100; j++ {
				r.JoinRoom(cid, "r1")
				b.Publish("r1", "hi", "u1")
				r.LeaveRoom(cid, "r1")
			}
			r.Unregister(cid)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.MembersOf("r1"))
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry()
	s1 := &fakeSession{}
	s2 := &fakeSession{}
	r.Register(domain.NewConnID(), "u1", s1)
	r.Register(domain.NewConnID(), "u2", s2)

	r.CloseAll()

	assert.True(t, s1.isClosed())
	assert.True(t, s2.isClosed())
}
