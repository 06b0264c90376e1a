package library

import (
	"slices"
	"sync"
	"time"
)

// DefaultNoticeTTL is how long a notification stays visible.
const DefaultNoticeTTL = 4 * time.Second

// Notice is a transient message for the user.
type Notice struct {
	ID      int
	Message string
	Posted  time.Time
}

// Notices holds transient messages that dismiss themselves after a TTL.
type Notices struct {
	ttl time.Duration

	mu     sync.Mutex
	items  []Notice
	timers map[int]*time.Timer
	nextID int
}

// NewNotices returns an empty set with the given TTL.
func NewNotices(ttl time.Duration) *Notices {
	return &Notices{ttl: ttl, timers: make(map[int]*time.Timer)}
}

// Post adds a message and schedules its dismissal.
func (n *Notices) Post(msg string) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	note := Notice{ID: n.nextID, Message: msg, Posted: time.Now()}
	n.items = append(n.items, note)
	id := note.ID
	n.timers[id] = time.AfterFunc(n.ttl, func() { n.Dismiss(id) })

	return note
}

// Dismiss removes the notice with id.
func (n *Notices) Dismiss(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	n.items = slices.DeleteFunc(n.items, func(x Notice) bool { return x.ID == id })
}

// Active returns the visible notices, oldest first.
func (n *Notices) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	return slices.Clone(n.items)
}

// Close stops all dismissal timers and clears the notices.
func (n *Notices) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, t := range n.timers {
		t.Stop()
	}
	clear(n.timers)
	n.items = nil
}
