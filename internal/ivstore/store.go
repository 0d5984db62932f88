// Package ivstore persists per-symbol implied-volatility observations so IV
// rank and percentile survive across CLI invocations. Two backends exist: a
// Postgres store for shared deployments and a msgpack snapshot file for
// single-user setups without a database.
package ivstore

import (
	"context"
	"time"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

// Observation is a single end-of-day implied-volatility reading.
type Observation struct {
	Symbol    string    `db:"symbol" msgpack:"symbol"`
	Date      time.Time `db:"observed_on" msgpack:"date"`
	IV        float64   `db:"iv" msgpack:"iv"`
	Source    string    `db:"source" msgpack:"source"`
	CreatedAt time.Time `db:"created_at" msgpack:"created_at"`
}

// Store reads and writes IV history for a symbol.
type Store interface {
	// History returns up to limit observations for symbol, oldest first.
	History(ctx context.Context, symbol string, limit int) ([]Observation, error)
	// Record upserts one observation keyed by (symbol, date).
	Record(ctx context.Context, obs Observation) error
}

func validateObservation(obs Observation) error {
	if err := guardrail.Require(obs.Symbol != "", guardrail.CodeValidation,
		"iv observation requires a symbol"); err != nil {
		return err
	}
	if err := guardrail.Require(!obs.Date.IsZero(), guardrail.CodeValidation,
		"iv observation requires a date", "symbol", obs.Symbol); err != nil {
		return err
	}
	return guardrail.Require(obs.IV >= 0, guardrail.CodeValidation,
		"iv observation cannot be negative", "symbol", obs.Symbol, "iv", obs.IV)
}
