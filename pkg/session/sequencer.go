package session

import (
	"context"
	"sync"
)

// Sequencer orders session writes per user by submission time.
//
// Each run reserves a Ticket when it is submitted. Before writing, the run waits
// for the ticket reserved just before it for the same user, and releases its own
// ticket when done. Users never share a chain, so one user's slow turn cannot
// delay another user.
type Sequencer struct {
	mu    sync.Mutex
	tails map[string]*Ticket
}

func NewSequencer() *Sequencer {
	return &Sequencer{tails: make(map[string]*Ticket)}
}

// Ticket is one slot in a user's write order.
type Ticket struct {
	seq    *Sequencer
	userID string
	prev   <-chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Reserve appends a ticket to the user's chain. Callers must Release it.
func (s *Sequencer) Reserve(userID string) *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Ticket{
		seq:    s,
		userID: userID,
		done:   make(chan struct{}),
	}
	if tail, ok := s.tails[userID]; ok {
		t.prev = tail.done
	}
	s.tails[userID] = t
	return t
}

// Wait blocks until every ticket reserved earlier for the same user is released.
func (t *Ticket) Wait(ctx context.Context) error {
	if t.prev == nil {
		return nil
	}
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release lets the next ticket proceed. Safe to call more than once.
func (t *Ticket) Release() {
	t.once.Do(func() {
		close(t.done)

		t.seq.mu.Lock()
		if t.seq.tails[t.userID] == t {
			delete(t.seq.tails, t.userID)
		}
		t.seq.mu.Unlock()
	})
}
