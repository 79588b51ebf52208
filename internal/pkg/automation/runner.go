package automation

import (
	"context"

	"github.com/memexshot/memexshot/app/models"
)

// Runner executes the actual coin creation for one claimed coin. The UI
// automation lives behind this interface so the listener's claim and status
// handling can be exercised without a desktop session.
type Runner interface {
	CreateCoin(ctx context.Context, coin *models.Coin) error
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, coin *models.Coin) error

func (f RunnerFunc) CreateCoin(ctx context.Context, coin *models.Coin) error {
	return f(ctx, coin)
}
