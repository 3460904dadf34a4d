// Package memstore holds in-memory implementations of the domain stores. They
// are used by unit tests and by the api binary when no database is configured.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	rowMu    sync.Mutex
	rowLocks map[string]*rowLock

	showtimes     map[string]*domain.Showtime
	showtimeLocks map[string]*sync.Mutex

	bookings map[string]*domain.Booking
	payments map[string]*domain.Payment

	movies      map[string]domain.Movie
	cinemas     map[string]domain.Cinema
	rooms       map[string]domain.Room
	concessions map[string]domain.Concession
}

func New() *Store {
	return &Store{
		showtimes:     make(map[string]*domain.Showtime),
		showtimeLocks: make(map[string]*sync.Mutex),
		rowLocks:      make(map[string]*rowLock),
		bookings:      make(map[string]*domain.Booking),
		payments:      make(map[string]*domain.Payment),
		movies:        make(map[string]domain.Movie),
		cinemas:       make(map[string]domain.Cinema),
		rooms:         make(map[string]domain.Room),
		concessions:   make(map[string]domain.Concession),
	}
}

type journalKey struct{}

// journal records undo steps for the writes made inside WithinTx and the rows
// those writes keep locked.
type journal struct {
	mu   sync.Mutex
	undo []func()
	rows []string
}

func (j *journal) add(fn func()) {
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

func (j *journal) hold(key string) {
	j.mu.Lock()
	j.rows = append(j.rows, key)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type rowLock struct {
	owner *journal
	done  chan struct{}
}

// WithinTx gives fn all-or-nothing semantics by undoing its writes on error.
// A row written inside fn stays locked until fn returns and the writes are
// kept or undone, so other callers never observe uncommitted state.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}

	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			s.releaseRows(j)
			panic(p)
		}
	}()

	err = fn(context.WithValue(ctx, journalKey{}, j))
	if err != nil {
		j.rollback()
	}

	s.releaseRows(j)

	return err
}

// lockRow waits until no other transaction holds key and returns with s.mu
// held. A write made inside a transaction takes key until the transaction
// ends.
func (s *Store) lockRow(ctx context.Context, key string, write bool) (func(), error) {
	j, _ := ctx.Value(journalKey{}).(*journal)

	lock, unlock := s.mu.RLock, s.mu.RUnlock
	if write {
		lock, unlock = s.mu.Lock, s.mu.Unlock
	}

	for {
		lock()

		s.rowMu.Lock()
		held := s.rowLocks[key]
		if held == nil || (j != nil && held.owner == j) {
			if write && j != nil && held == nil {
				s.rowLocks[key] = &rowLock{owner: j, done: make(chan struct{})}
				j.hold(key)
			}
			s.rowMu.Unlock()

			return unlock, nil
		}
		done := held.done
		s.rowMu.Unlock()

		unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Store) releaseRows(j *journal) {
	j.mu.Lock()
	rows := j.rows
	j.rows = nil
	j.mu.Unlock()

	s.rowMu.Lock()
	defer s.rowMu.Unlock()

	for _, key := range rows {
		if held, ok := s.rowLocks[key]; ok && held.owner == j {
			close(held.done)
			delete(s.rowLocks, key)
		}
	}
}

func paymentRow(ref string) string {
	return "payment:" + ref
}

func bookingRow(id string) string {
	return "booking:" + id
}

// recordUndo registers fn with the transaction on ctx, if there is one.
func recordUndo(ctx context.Context, fn func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.add(fn)
	}
}

var errNilEntity = errors.New("memstore: nil entity")
