// Package repository provides the initialization for repository implementations
package repository

import (
	"github.com/MilynDsilva/consultrooms/internal/config"
	"github.com/MilynDsilva/consultrooms/internal/repository/memory"
	"github.com/MilynDsilva/consultrooms/internal/repository/redis"
)

// New selects the session store implementation from configuration:
// redis when enabled, otherwise the in-memory store
func New(cfg config.RedisConfig) (Repository, error) {
	if cfg.Enabled {
		return redis.NewRepository(cfg)
	}
	return memory.NewRepository(), nil
}
