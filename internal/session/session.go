// Package session tracks open documents and serializes plan execution
// against each one. Plans on one session run strictly one at a time;
// distinct sessions proceed concurrently.
package session

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docplan/internal/doc"
	"docplan/internal/plan"
)

var (
	// ErrNotFound reports an id with no open session.
	ErrNotFound = errors.New("session not found")

	// ErrClosed reports a session that was closed while work was queued.
	ErrClosed = errors.New("session closed")
)

// ID identifies one open session.
type ID string

// State is the lifecycle state of a session.
type State int32

const (
	StateActive State = iota
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session binds a document to a serialization lock. All plan execution
// for the document goes through Apply while the mutex is held.
type Session struct {
	mu sync.Mutex

	id     ID
	doc    *doc.Document
	opened time.Time

	state   int32 // atomic State
	applied atomic.Int64
}

// ID returns the session's identity.
func (s *Session) ID() ID { return s.id }

// Document returns the session's document. Callers must not mutate it
// outside Apply; reads of committed state are safe at any time.
func (s *Session) Document() *doc.Document { return s.doc }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(atomic.LoadInt32(&s.state)) }

// Opened returns when the session was opened.
func (s *Session) Opened() time.Time { return s.opened }

// Applied returns how many plans have been executed, counting failed
// attempts.
func (s *Session) Applied() int64 { return s.applied.Load() }

func (s *Session) close() { atomic.StoreInt32(&s.state, int32(StateClosed)) }

// Info is a point-in-time snapshot of a session for reporting.
type Info struct {
	ID       ID           `json:"id"`
	State    string       `json:"state"`
	Opened   time.Time    `json:"opened"`
	Applied  int64        `json:"applied"`
	Revision doc.Revision `json:"revision"`
	Stats    doc.Stats    `json:"stats"`
}

// Registry holds the open sessions. The registry lock covers only the
// session map; execution locks live on the sessions themselves so a slow
// plan never blocks unrelated sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[ID]*Session

	engine *plan.Engine
	log    *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithEngine sets the plan engine used for Apply and Find.
func WithEngine(e *plan.Engine) Option {
	return func(r *Registry) {
		if e != nil {
			r.engine = e
		}
	}
}

// NewRegistry builds an empty registry with a default engine.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[ID]*Session),
		engine:   plan.NewEngine(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open registers a document and returns its session id.
func (r *Registry) Open(d *doc.Document) ID {
	s := &Session{
		id:     ID(uuid.NewString()),
		doc:    d,
		opened: time.Now(),
	}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	r.log.Info("session opened",
		zap.String("session", string(s.id)),
		zap.Uint64("revision", uint64(d.Revision())))
	return s.id
}

// Get returns the session for id.
func (r *Registry) Get(id ID) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}

// Close removes a session. Plans already holding the session lock finish;
// queued plans fail with ErrClosed.
func (r *Registry) Close(id ID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	r.log.Info("session closed",
		zap.String("session", string(id)),
		zap.Int64("applied", s.Applied()))
	return true
}

// Active returns the open session ids in stable order.
func (r *Registry) Active() []ID {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply executes a plan against the session's document. Execution is
// serialized per session; a second Apply on the same id blocks until the
// first commits or discards.
func (r *Registry) Apply(id ID, p plan.Plan) (*plan.Receipt, error) {
	s, ok := r.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StateClosed {
		return nil, ErrClosed
	}
	s.applied.Add(1)
	return r.engine.Execute(s.doc, p)
}

// Find evaluates a selector against the session's committed document.
func (r *Registry) Find(id ID, sel plan.Selector) ([]plan.Match, error) {
	s, ok := r.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r.engine.Find(s.doc, sel), nil
}

// Info snapshots a session for reporting.
func (r *Registry) Info(id ID) (Info, error) {
	s, ok := r.Get(id)
	if !ok {
		return Info{}, ErrNotFound
	}
	return Info{
		ID:       s.id,
		State:    s.State().String(),
		Opened:   s.opened,
		Applied:  s.Applied(),
		Revision: s.doc.Revision(),
		Stats:    s.doc.Stats(),
	}, nil
}
