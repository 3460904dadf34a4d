package domain

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
)

type Movie struct {
	ID    string
	Title string
}

type Cinema struct {
	ID   string
	Name string
}

type Room struct {
	ID       string
	CinemaID string
	Name     string
}

type Concession struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Available bool
	CinemaIDs []string
}

// AppliesTo reports whether the item is sold at the cinema. An empty list means every cinema.
func (c Concession) AppliesTo(cinemaID string) bool {
	return len(c.CinemaIDs) == 0 || slices.Contains(c.CinemaIDs, cinemaID)
}

// CatalogLookup is the read-only view of catalog data maintained elsewhere.
// Every method returns ErrRecordNotFound when the entity does not exist.
type CatalogLookup interface {
	FindMovie(ctx context.Context, id string) (*Movie, error)
	FindCinema(ctx context.Context, id string) (*Cinema, error)
	FindRoom(ctx context.Context, id string) (*Room, error)
	FindConcession(ctx context.Context, id string) (*Concession, error)
}
