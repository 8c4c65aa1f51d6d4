package session

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const shardCount = 32

// Options configures a Store.
type Options struct {
	// Timeout is the inactivity period after which a session expires.
	Timeout time.Duration
	// MaxTurns bounds the history kept per session; older turns are dropped.
	MaxTurns int
	// MaxSessions bounds live sessions. Above it, new ids are refused with
	// ErrTooManySessions; existing sessions are never expired early. Zero
	// disables the bound.
	MaxSessions int
	// SweepInterval is how often Run sweeps.
	SweepInterval time.Duration
	// TombstoneTTL is how long an expired id keeps answering ErrSessionExpired.
	TombstoneTTL time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	Logger zerolog.Logger
}

// Store holds sessions in a sharded map. Each session has its own lock, so
// requests for one id are serialized while distinct ids run in parallel.
type Store struct {
	opts   Options
	shards [shardCount]*shard
	log    zerolog.Logger

	// live counts created sessions not yet tombstoned.
	live atomic.Int64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// sem is a one-slot lock guarding every field below it.
	sem chan struct{}

	sess      Session
	nextSeq   int64
	expired   bool
	expiredAt time.Time
	removed   bool
}

// New creates a Store.
func New(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 10
	}
	if opts.TombstoneTTL <= 0 {
		opts.TombstoneTTL = opts.Timeout
	}
	s := &Store{opts: opts, log: opts.Logger}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// lookup returns the entry for id, creating an empty session if absent.
// Creation happens under the shard lock, so an id is created at most once.
// With limit set, creation fails once MaxSessions sessions are live.
func (s *Store) lookup(id string, limit bool) (*entry, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.entries[id]; ok {
		return e, nil
	}
	if limit && s.opts.MaxSessions > 0 && s.live.Load() >= int64(s.opts.MaxSessions) {
		return nil, ErrTooManySessions
	}
	now := s.opts.Clock()
	e := &entry{
		sem: make(chan struct{}, 1),
		sess: Session{
			ID:           id,
			Slots:        map[string]string{},
			CreatedAt:    now,
			LastActivity: now,
		},
	}
	sh.entries[id] = e
	s.live.Add(1)
	return e, nil
}

func (e *entry) tryLock() bool {
	select {
	case e.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *entry) unlock() { <-e.sem }

// tombstone drops the session contents and marks the id expired. The caller
// holds e's lock.
func (s *Store) tombstone(e *entry, now time.Time) {
	if e.expired {
		return
	}
	s.live.Add(-1)
	e.expired = true
	e.expiredAt = now
	e.sess.Turns = nil
	e.sess.Slots = map[string]string{}
}

func (s *Store) idle(e *entry, now time.Time) bool {
	return s.opts.Timeout > 0 && now.Sub(e.sess.LastActivity) > s.opts.Timeout
}

// Handle is exclusive access to one session. It must be released.
type Handle struct {
	store    *Store
	e        *entry
	released bool
}

// Acquire locks the session with the given id, creating it if absent, and
// waits until any in-flight request on the same id finishes. It fails with
// ErrSessionExpired if the session has expired, with ErrTooManySessions if
// the id is new and the store is full, and with ctx's error if ctx ends first.
func (s *Store) Acquire(ctx context.Context, id string) (*Handle, error) {
	for {
		e, err := s.lookup(id, true)
		if err != nil {
			s.log.Warn().Str("session_id", id).Int("max_sessions", s.opts.MaxSessions).Msg("session refused")
			return nil, err
		}
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.removed {
			// Purged by the sweep between lookup and lock; look up again.
			e.unlock()
			continue
		}
		if e.expired {
			e.unlock()
			return nil, ErrSessionExpired
		}
		now := s.opts.Clock()
		if s.idle(e, now) {
			s.tombstone(e, now)
			e.unlock()
			s.log.Info().Str("session_id", id).Msg("session expired on access")
			return nil, ErrSessionExpired
		}
		return &Handle{store: s, e: e}, nil
	}
}

// Session returns a copy of the session.
func (h *Handle) Session() Session {
	return h.e.sess.clone()
}

// Append adds a turn, assigning its sequence number, ID and timestamp. The
// history is truncated to MaxTurns; slots survive truncation. It fails with
// ErrSessionExpired if the session idled past the timeout since acquisition.
func (h *Handle) Append(turn Turn) (Turn, error) {
	if h.released {
		return Turn{}, ErrReleased
	}
	s, e := h.store, h.e
	now := s.opts.Clock()
	if e.expired {
		return Turn{}, ErrSessionExpired
	}
	if s.idle(e, now) {
		s.tombstone(e, now)
		return Turn{}, ErrSessionExpired
	}

	turn = turn.clone()
	turn.Seq = e.nextSeq + 1
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = now
	}

	turns := append(e.sess.Turns, turn)
	if over := len(turns) - s.opts.MaxTurns; over > 0 {
		turns = append([]Turn(nil), turns[over:]...)
	}
	slots := copyMap(e.sess.Slots)
	if slots == nil {
		slots = map[string]string{}
	}
	for k, v := range turn.Slots {
		slots[k] = v
	}

	// Commit.
	e.sess.Turns = turns
	e.sess.Slots = slots
	e.sess.LastActivity = now
	e.nextSeq = turn.Seq
	return turn.clone(), nil
}

// Release unlocks the session. Calling it more than once is a no-op.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.e.unlock()
}

// GetSession returns a copy of the session, creating it if absent.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	h, err := s.Acquire(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer h.Release()
	return h.Session(), nil
}

// AppendTurn appends a turn to the session atomically.
func (s *Store) AppendTurn(ctx context.Context, id string, turn Turn) (Turn, error) {
	h, err := s.Acquire(ctx, id)
	if err != nil {
		return Turn{}, err
	}
	defer h.Release()
	return h.Append(turn)
}

// Expire evicts a session explicitly. It waits for an in-flight request on
// the id to finish. Later requests with the id get ErrSessionExpired.
func (s *Store) Expire(ctx context.Context, id string) error {
	for {
		// The entry is tombstoned right away, so the limit does not apply.
		e, _ := s.lookup(id, false)
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		if e.removed {
			e.unlock()
			continue
		}
		s.tombstone(e, s.opts.Clock())
		e.unlock()
		return nil
	}
}

// Len returns the number of live (not expired) sessions.
func (s *Store) Len() int {
	return int(s.live.Load())
}

// SweepStats reports what a sweep did.
type SweepStats struct {
	Expired int
	Purged  int
	Skipped int
}

// Sweep expires sessions idle past the timeout and purges tombstones older
// than TombstoneTTL. Sessions with a request in flight are skipped; a
// session inside its timeout is never touched.
func (s *Store) Sweep(now time.Time) SweepStats {
	var stats SweepStats
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			if !e.tryLock() {
				stats.Skipped++
				continue
			}
			switch {
			case e.expired && now.Sub(e.expiredAt) > s.opts.TombstoneTTL:
				e.removed = true
				delete(sh.entries, id)
				stats.Purged++
			case e.expired:
			case s.idle(e, now):
				s.tombstone(e, now)
				stats.Expired++
			}
			e.unlock()
		}
		sh.mu.Unlock()
	}

	if stats.Expired+stats.Purged > 0 {
		s.log.Debug().
			Int("expired", stats.Expired).
			Int("purged", stats.Purged).
			Int("live", s.Len()).
			Msg("session sweep")
	}
	return stats
}

// Run sweeps on every SweepInterval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	interval := s.opts.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.opts.Clock())
		}
	}
}
