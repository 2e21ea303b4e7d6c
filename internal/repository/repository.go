package repository

import (
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	rdb    *redis.Client
}

func NewRepository(cfg *config.Config, dbpool *sql.DB, rdb *redis.Client) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		rdb:    rdb,
	}
}

// wrapNotFound 把底层的 sql.ErrNoRows 统一映射为领域错误
func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
