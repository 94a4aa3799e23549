package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user, chat or message does not exist.
var ErrNotFound = errors.New("not found")

type Storage struct {
	DB    *PostgresDB
	Redis *RedisClient
}

func NewStorage(ctx context.Context, databaseURL, redisURL string, pc PoolConfig) (*Storage, error) {
	db, err := NewPostgresDB(ctx, databaseURL, pc)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	redisClient, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (s *Storage) Close() error {
	s.DB.Close()
	return s.Redis.Close()
}
