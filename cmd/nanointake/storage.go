package main

import (
	"fmt"
	"time"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/engine/storage/diskv"
	"github.com/micromdm/nanointake/engine/storage/inmem"
	"github.com/micromdm/nanointake/engine/storage/mysql"
	storageredis "github.com/micromdm/nanointake/engine/storage/redis"
	"github.com/micromdm/nanointake/engine/storage/sqlite"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

type storageConfig struct {
	flows storage.FlowStorage

	// expirer is nil for backends that expire sessions natively.
	expirer storage.SessionExpirer
}

func parseStorage(name, dsn string, sessionTTL time.Duration) (*storageConfig, error) {
	switch name {
	case "inmem":
		s := inmem.New()
		return &storageConfig{flows: s, expirer: s}, nil
	case "file", "diskv":
		if dsn == "" {
			dsn = "db"
		}
		s := diskv.New(dsn)
		return &storageConfig{flows: s, expirer: s}, nil
	case "redis":
		if dsn == "" {
			dsn = "redis://localhost:6379/0"
		}
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		s := storageredis.New(redis.NewClient(opts), storageredis.WithTTL(sessionTTL))
		return &storageConfig{flows: s}, nil
	case "mysql":
		s, err := mysql.New(mysql.WithDSN(dsn))
		if err != nil {
			return nil, err
		}
		return &storageConfig{flows: s, expirer: s}, nil
	case "sqlite":
		if dsn == "" {
			dsn = "nanointake.db"
		}
		s, err := sqlite.New(dsn)
		if err != nil {
			return nil, err
		}
		return &storageConfig{flows: s, expirer: s}, nil
	}
	return nil, fmt.Errorf("unknown storage: %s", name)
}
