package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Store is the single handle every repository method hangs off. Each call
// runs under the configured acquire timeout so an exhausted pool surfaces
// as a timeout instead of blocking forever.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
	log     *logrus.Logger
}

func New(db *sqlx.DB, timeout time.Duration, logger *logrus.Logger) *Store {
	return &Store{
		db:      db,
		timeout: timeout,
		log:     logger,
	}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.db.PingContext(ctx)
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
