// Package strategyconfig holds the versioned StrategyConfig record.
// Every run fetches it explicitly; there is no process-wide current config.
package strategyconfig

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/logger"
	"github.com/wonny/contentpulse/pkg/redis"
)

// maxUpdateAttempts bounds the optimistic retry when two updates race for the same version
const maxUpdateAttempts = 3

// Store is the StrategyConfig Store
// ⭐ SSOT: 현재 전략 설정 조회/갱신은 여기서만
type Store struct {
	repo     contracts.StrategyConfigRepository
	cache    *redis.Cache
	defaults Defaults
	logger   *logger.Logger
	now      func() time.Time
}

// NewStore creates a store. cache may be nil.
func NewStore(repo contracts.StrategyConfigRepository, cache *redis.Cache, defaults Defaults, log *logger.Logger) *Store {
	return &Store{
		repo:     repo,
		cache:    cache,
		defaults: defaults,
		logger:   log.WithComponent("strategyconfig"),
		now:      time.Now,
	}
}

// GetCurrentConfig returns the current config, creating version 1 from the
// defaults when none exists.
func (s *Store) GetCurrentConfig(ctx context.Context) (*contracts.StrategyConfig, error) {
	return redis.Load(ctx, s.cache, redis.StrategyConfigKey, redis.TTLConfig, s.loadOrCreate)
}

func (s *Store) loadOrCreate(ctx context.Context) (*contracts.StrategyConfig, error) {
	current, err := s.repo.Current(ctx)
	if err != nil {
		return nil, contracts.WrapStore("get current config", err)
	}

	if current == nil {
		initial := s.defaults.Config()
		initial.CreatedAt = s.now().UTC()
		current, err = s.repo.CreateInitial(ctx, initial)
		if err != nil {
			return nil, contracts.WrapStore("create default config", err)
		}
		s.logger.WithField("version", current.Version).Info("created default strategy config")
	}
	return current, nil
}

// UpdateConfig merges the provided fields into the current config and
// persists the result as version current+1. History is never rewritten; a
// caller-supplied version is only accepted when it is exactly current+1.
func (s *Store) UpdateConfig(ctx context.Context, update contracts.StrategyConfigUpdate) (*contracts.StrategyConfig, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		current, err := s.repo.Current(ctx)
		if err != nil {
			return nil, contracts.WrapStore("get current config", err)
		}
		if current == nil {
			if current, err = s.GetCurrentConfig(ctx); err != nil {
				return nil, err
			}
		}

		next := merge(*current, update)
		next.Version = current.Version + 1
		if update.Version != nil && *update.Version != next.Version {
			return nil, contracts.NewValidationError("version",
				"expected %d (current is %d), got %d", next.Version, current.Version, *update.Version)
		}
		next.CreatedAt = s.now().UTC()

		ok, err := s.repo.InsertVersion(ctx, next)
		if err != nil {
			return nil, contracts.WrapStore("insert config version", err)
		}
		if ok {
			s.cache.Set(ctx, redis.StrategyConfigKey, &next, redis.TTLConfig)
			s.logger.WithFields(map[string]interface{}{
				"version": next.Version,
				"weights": next.Weights,
			}).Info("strategy config updated")
			return &next, nil
		}

		// another writer took this version; re-read and merge again
		s.logger.WithField("attempt", attempt).Warn("strategy config version conflict")
	}

	return nil, &contracts.StoreError{Op: "update config", Err: fmt.Errorf("version conflict after %d attempts", maxUpdateAttempts)}
}

// History lists stored versions, newest first
func (s *Store) History(ctx context.Context, limit int) ([]contracts.StrategyConfig, error) {
	history, err := s.repo.History(ctx, limit)
	if err != nil {
		return nil, contracts.WrapStore("config history", err)
	}
	return history, nil
}

func merge(base contracts.StrategyConfig, update contracts.StrategyConfigUpdate) contracts.StrategyConfig {
	out := base
	if update.Weights != nil {
		out.Weights = *update.Weights
	}
	if update.OpportunityWeights != nil {
		out.OpportunityWeights = *update.OpportunityWeights
	}
	if update.ContentRules != nil {
		out.ContentRules = *update.ContentRules
	}
	out.ContentRules.RequiredSections = append([]string(nil), out.ContentRules.RequiredSections...)
	return out
}

// Hash returns the sha256 of the config's canonical JSON, excluding CreatedAt.
// Two configs with the same version and content hash equally.
func Hash(cfg contracts.StrategyConfig) (string, error) {
	cfg.CreatedAt = time.Time{}
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
