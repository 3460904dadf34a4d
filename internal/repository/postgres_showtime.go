package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// PostgresShowtimeRepository stores each showtime's seat map as a jsonb column.
// Seat transitions are single conditional UPDATEs, and a trigger keeps
// available_seats and has_holding_seats in step with the map.
type PostgresShowtimeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowtimeRepository(db *pgxpool.Pool) *PostgresShowtimeRepository {
	return &PostgresShowtimeRepository{
		db: db,
	}
}

const showtimeColumns = `
	id, movie_id, cinema_id, room_id, show_date_time, total_seats,
	available_seats, status, seat_map, has_holding_seats, created_at, updated_at`

func (p *PostgresShowtimeRepository) GetShowtime(ctx context.Context, id string) (*domain.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = $1`

	showtime, err := scanShowtime(conn(ctx, p.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return showtime, nil
}

func (p *PostgresShowtimeRepository) TransitionSeat(ctx context.Context, t domain.SeatTransition) (bool, error) {
	to, err := json.Marshal(t.To)
	if err != nil {
		return false, fmt.Errorf("failed to encode seat status: %w", err)
	}

	from := make([]string, 0, len(t.From))
	for _, state := range t.From {
		if state == t.To.State || state.CanTransitionTo(t.To.State) {
			from = append(from, string(state))
		}
	}

	if len(from) == 0 {
		return false, nil
	}

	query := `
		UPDATE showtimes
		SET seat_map = jsonb_set(seat_map, ARRAY[$2::text], $3::jsonb, true),
			updated_at = NOW()
		WHERE id = $1
			AND COALESCE(seat_map -> $2::text ->> 'state', 'AVAILABLE') = ANY($4::text[])
			AND ($5::timestamptz IS NULL
				OR (seat_map -> $2::text ->> 'holdStartedAt')::timestamptz > $5::timestamptz)
			AND ($6::timestamptz IS NULL
				OR (seat_map -> $2::text ->> 'holdStartedAt')::timestamptz < $6::timestamptz)
			AND (NOT $7::boolean OR seat_map -> $2::text ->> 'holdStartedAt' IS NULL)
	`

	tag, err := conn(ctx, p.db).Exec(ctx, query, t.ShowtimeID, t.SeatID, string(to), from, t.HeldAfter, t.HeldBefore, t.Unstamped)
	if err != nil {
		return false, fmt.Errorf("failed to update seat %s: %w", t.SeatID, err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool

	err = conn(ctx, p.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM showtimes WHERE id = $1)`, t.ShowtimeID).Scan(&exists)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, domain.ErrRecordNotFound
	}

	return false, nil
}

func (p *PostgresShowtimeRepository) ListShowtimesWithHoldingSeats(ctx context.Context) ([]domain.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE has_holding_seats ORDER BY show_date_time`

	rows, err := conn(ctx, p.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	showtimes := make([]domain.Showtime, 0)

	for rows.Next() {
		showtime, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}

		showtimes = append(showtimes, *showtime)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return showtimes, nil
}

// CreateShowtime inserts a showtime with its initial seat map.
func (p *PostgresShowtimeRepository) CreateShowtime(ctx context.Context, showtime *domain.Showtime) error {
	seatMap := showtime.SeatMap
	if seatMap == nil {
		seatMap = domain.SeatMap{}
	}

	encoded, err := json.Marshal(seatMap)
	if err != nil {
		return fmt.Errorf("failed to encode seat map: %w", err)
	}

	query := `
		INSERT INTO showtimes (id, movie_id, cinema_id, room_id, show_date_time, total_seats, status, seat_map)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		RETURNING available_seats, has_holding_seats, created_at, updated_at
	`

	return conn(ctx, p.db).QueryRow(
		ctx,
		query,
		showtime.ID,
		showtime.MovieID,
		showtime.CinemaID,
		showtime.RoomID,
		showtime.ShowDateTime,
		showtime.TotalSeats,
		showtime.Status,
		string(encoded),
	).Scan(&showtime.AvailableSeats, &showtime.HasHoldingSeats, &showtime.CreatedAt, &showtime.UpdatedAt)
}

func scanShowtime(row pgx.Row) (*domain.Showtime, error) {
	var showtime domain.Showtime
	var status string
	var seatMap []byte

	err := row.Scan(
		&showtime.ID,
		&showtime.MovieID,
		&showtime.CinemaID,
		&showtime.RoomID,
		&showtime.ShowDateTime,
		&showtime.TotalSeats,
		&showtime.AvailableSeats,
		&status,
		&seatMap,
		&showtime.HasHoldingSeats,
		&showtime.CreatedAt,
		&showtime.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	showtime.Status, err = domain.ParseShowtimeStatus(status)
	if err != nil {
		return nil, err
	}

	showtime.SeatMap = domain.SeatMap{}

	err = json.Unmarshal(seatMap, &showtime.SeatMap)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seat map of showtime %s: %w", showtime.ID, err)
	}

	for seatID, seat := range showtime.SeatMap {
		if _, err := domain.ParseSeatState(string(seat.State)); err != nil {
			return nil, fmt.Errorf("seat %s of showtime %s: %w", seatID, showtime.ID, err)
		}
	}

	return &showtime, nil
}
