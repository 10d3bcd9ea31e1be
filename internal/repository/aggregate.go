package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrAggregateUnavailable signals that the precomputed aggregate cannot
// serve this request (function never deployed, signature mismatch, or the
// attempt timed out). It is recovered locally by falling back to direct
// aggregation and is never surfaced to callers as a failure. Genuine data
// errors pass through unwrapped so they are not masked as fallback triggers.
var ErrAggregateUnavailable = errors.New("precomputed aggregate unavailable")

// AggregateProvider executes a named server-side aggregate. The precomputed
// implementation calls a Postgres function; a direct-compute path lives in
// the services and is chosen when this one reports unavailable.
type AggregateProvider interface {
	Query(ctx context.Context, fn string, dest interface{}, args ...interface{}) error
}

type precomputedProvider struct {
	db *gorm.DB
}

func NewPrecomputedProvider(db *gorm.DB) AggregateProvider {
	return &precomputedProvider{db}
}

// Query runs SELECT * FROM fn(args...). fn is an internal constant, never
// raw input.
func (p *precomputedProvider) Query(ctx context.Context, fn string, dest interface{}, args ...interface{}) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	sql := fmt.Sprintf("SELECT * FROM %s(%s)", fn, placeholders)

	err := p.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error
	if err == nil {
		return nil
	}
	if isFunctionMissing(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", fn, ErrAggregateUnavailable)
	}
	return err
}

// IsAggregateUnavailable reports whether err is the fallback trigger.
func IsAggregateUnavailable(err error) bool {
	return errors.Is(err, ErrAggregateUnavailable)
}

func isFunctionMissing(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42883 undefined_function, 42P01 undefined_table behind the function
		return pgErr.Code == "42883" || pgErr.Code == "42P01"
	}
	return false
}
