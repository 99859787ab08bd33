package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) transactionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}

// Ping 用于健康检查
func (r *Repository) Ping() error {
	ctx, cancel := r.queryContext()
	defer cancel()

	return r.dbpool.PingContext(ctx)
}
