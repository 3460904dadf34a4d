package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// PostgresCatalogRepository reads the catalog tables. They are maintained by
// the catalog service; this service never writes them.
type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) FindMovie(ctx context.Context, id string) (*domain.Movie, error) {
	var movie domain.Movie

	err := conn(ctx, p.db).QueryRow(ctx, `SELECT id, title FROM movies WHERE id = $1`, id).
		Scan(&movie.ID, &movie.Title)
	if err != nil {
		return nil, notFound(err)
	}

	return &movie, nil
}

func (p *PostgresCatalogRepository) FindCinema(ctx context.Context, id string) (*domain.Cinema, error) {
	var cinema domain.Cinema

	err := conn(ctx, p.db).QueryRow(ctx, `SELECT id, name FROM cinemas WHERE id = $1`, id).
		Scan(&cinema.ID, &cinema.Name)
	if err != nil {
		return nil, notFound(err)
	}

	return &cinema, nil
}

func (p *PostgresCatalogRepository) FindRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room

	err := conn(ctx, p.db).QueryRow(ctx, `SELECT id, cinema_id, name FROM rooms WHERE id = $1`, id).
		Scan(&room.ID, &room.CinemaID, &room.Name)
	if err != nil {
		return nil, notFound(err)
	}

	return &room, nil
}

func (p *PostgresCatalogRepository) FindConcession(ctx context.Context, id string) (*domain.Concession, error) {
	query := `
		SELECT id, name, price, available, cinema_ids
		FROM concessions
		WHERE id = $1
	`

	var concession domain.Concession

	err := conn(ctx, p.db).QueryRow(ctx, query, id).Scan(
		&concession.ID,
		&concession.Name,
		&concession.Price,
		&concession.Available,
		&concession.CinemaIDs,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return &concession, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}

	return err
}
