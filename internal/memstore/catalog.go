package memstore

import (
	"context"
	"slices"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) PutMovie(movie domain.Movie) {
	s.mu.Lock()
	s.movies[movie.ID] = movie
	s.mu.Unlock()
}

func (s *Store) PutCinema(cinema domain.Cinema) {
	s.mu.Lock()
	s.cinemas[cinema.ID] = cinema
	s.mu.Unlock()
}

func (s *Store) PutRoom(room domain.Room) {
	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()
}

func (s *Store) PutConcession(concession domain.Concession) {
	concession.CinemaIDs = slices.Clone(concession.CinemaIDs)

	s.mu.Lock()
	s.concessions[concession.ID] = concession
	s.mu.Unlock()
}

func (s *Store) FindMovie(ctx context.Context, id string) (*domain.Movie, error) {
	return find(s, s.movies, id)
}

func (s *Store) FindCinema(ctx context.Context, id string) (*domain.Cinema, error) {
	return find(s, s.cinemas, id)
}

func (s *Store) FindRoom(ctx context.Context, id string) (*domain.Room, error) {
	return find(s, s.rooms, id)
}

func (s *Store) FindConcession(ctx context.Context, id string) (*domain.Concession, error) {
	concession, err := find(s, s.concessions, id)
	if err != nil {
		return nil, err
	}

	concession.CinemaIDs = slices.Clone(concession.CinemaIDs)

	return concession, nil
}

func find[T any](s *Store, m map[string]T, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := m[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &v, nil
}
