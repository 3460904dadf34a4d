package domain

import "context"

// Transactor runs fn inside a single atomic unit. Repositories called with the
// context passed to fn take part in that unit; a nested call joins the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
