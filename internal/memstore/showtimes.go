package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// PutShowtime inserts or replaces a showtime. Counters are derived from the seat map.
func (s *Store) PutShowtime(showtime domain.Showtime) error {
	if showtime.ID == "" {
		return errNilEntity
	}

	cp := copyShowtime(&showtime)
	if cp.SeatMap == nil {
		cp.SeatMap = domain.SeatMap{}
	}
	refreshCounters(cp)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.showtimes[cp.ID] = cp
	if _, ok := s.showtimeLocks[cp.ID]; !ok {
		s.showtimeLocks[cp.ID] = &sync.Mutex{}
	}

	return nil
}

func (s *Store) GetShowtime(ctx context.Context, id string) (*domain.Showtime, error) {
	showtime, lock, err := s.lookupShowtime(id)
	if err != nil {
		return nil, err
	}

	lock.Lock()
	defer lock.Unlock()

	return copyShowtime(showtime), nil
}

// TransitionSeat applies t under the showtime's lock, which makes the check and
// the write a single step for that seat.
func (s *Store) TransitionSeat(ctx context.Context, t domain.SeatTransition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	showtime, lock, err := s.lookupShowtime(t.ShowtimeID)
	if err != nil {
		return false, err
	}

	lock.Lock()
	defer lock.Unlock()

	current := showtime.SeatMap.Status(t.SeatID)
	if !t.Matches(current) {
		return false, nil
	}

	previous, existed := showtime.SeatMap[t.SeatID]
	previousUpdatedAt := showtime.UpdatedAt

	showtime.SeatMap[t.SeatID] = copySeatStatus(t.To)
	showtime.UpdatedAt = time.Now().UTC()
	refreshCounters(showtime)

	recordUndo(ctx, func() {
		lock.Lock()
		defer lock.Unlock()

		if existed {
			showtime.SeatMap[t.SeatID] = previous
		} else {
			delete(showtime.SeatMap, t.SeatID)
		}
		showtime.UpdatedAt = previousUpdatedAt
		refreshCounters(showtime)
	})

	return true, nil
}

func (s *Store) ListShowtimesWithHoldingSeats(ctx context.Context) ([]domain.Showtime, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.showtimes))
	for id := range s.showtimes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	showtimes := make([]domain.Showtime, 0)

	for _, id := range ids {
		showtime, err := s.GetShowtime(ctx, id)
		if err != nil {
			return nil, err
		}

		if showtime.HasHoldingSeats {
			showtimes = append(showtimes, *showtime)
		}
	}

	return showtimes, nil
}

func (s *Store) lookupShowtime(id string) (*domain.Showtime, *sync.Mutex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	showtime, ok := s.showtimes[id]
	if !ok {
		return nil, nil, domain.ErrRecordNotFound
	}

	return showtime, s.showtimeLocks[id], nil
}

func refreshCounters(showtime *domain.Showtime) {
	counters := showtime.SeatMap.Counters(showtime.TotalSeats)

	showtime.AvailableSeats = counters.Available
	showtime.HasHoldingSeats = counters.Holding > 0
}

func copyShowtime(showtime *domain.Showtime) *domain.Showtime {
	cp := *showtime
	cp.SeatMap = make(domain.SeatMap, len(showtime.SeatMap))

	for seatID, status := range showtime.SeatMap {
		cp.SeatMap[seatID] = copySeatStatus(status)
	}

	return &cp
}

func copySeatStatus(status domain.SeatStatus) domain.SeatStatus {
	cp := domain.SeatStatus{State: status.State}

	if status.HoldStartedAt != nil {
		t := *status.HoldStartedAt
		cp.HoldStartedAt = &t
	}

	if status.BookingID != nil {
		id := *status.BookingID
		cp.BookingID = &id
	}

	return cp
}
