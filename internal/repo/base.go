package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Base binds the shared GORM connection to a caller context and an optional
// per-operation deadline.
type Base struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewBase constructs a Base backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTimeout returns a copy whose Run calls are bounded by d. Zero disables
// the bound.
func (b Base) WithTimeout(d time.Duration) Base {
	b.timeout = d
	return b
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Run executes fn against the connection bound to ctx, cancelled after the
// configured timeout.
func (b Base) Run(ctx context.Context, fn func(db *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return fn(b.db.WithContext(ctx))
}
