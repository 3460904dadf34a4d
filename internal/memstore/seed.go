package memstore

import (
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedDemo loads a small catalog and two upcoming showtimes so the api can be
// exercised without a database.
func (s *Store) SeedDemo(now time.Time) error {
	s.PutMovie(domain.Movie{ID: "movie-1", Title: "Dune: Part Two"})
	s.PutCinema(domain.Cinema{ID: "cinema-1", Name: "Cinestar Quoc Thanh"})
	s.PutRoom(domain.Room{ID: "room-1", CinemaID: "cinema-1", Name: "Room 1"})

	s.PutConcession(domain.Concession{
		ID:        "popcorn-large",
		Name:      "Large Popcorn",
		Price:     decimal.NewFromInt(65000),
		Available: true,
	})
	s.PutConcession(domain.Concession{
		ID:        "combo-couple",
		Name:      "Couple Combo",
		Price:     decimal.NewFromInt(119000),
		Available: true,
		CinemaIDs: []string{"cinema-1"},
	})

	start := now.UTC().Truncate(time.Hour)

	for i, id := range []string{"showtime-1", "showtime-2"} {
		err := s.PutShowtime(domain.Showtime{
			ID:           id,
			MovieID:      "movie-1",
			CinemaID:     "cinema-1",
			RoomID:       "room-1",
			ShowDateTime: start.Add(time.Duration(i+1) * 24 * time.Hour),
			TotalSeats:   80,
			Status:       domain.ShowtimeActive,
			CreatedAt:    now.UTC(),
			UpdatedAt:    now.UTC(),
		})
		if err != nil {
			return err
		}
	}

	return nil
}
