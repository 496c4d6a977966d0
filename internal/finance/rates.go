package finance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mdental/practice-platform/pkg/logging"
)

const rateCacheKey = "mdental:exchange_rate"
const rateCacheTTL = 10 * time.Minute

// RateService serves the EUR to MKD exchange rate. Rate history is
// append-only in Postgres; the latest value is cached in Redis so the
// dashboard and report queries do not hit the history table on every call.
type RateService struct {
	db       financeDB
	cache    *redis.Client
	logger   *logging.Logger
	fallback float64
}

// NewRateService builds a rate service. cache may be nil when Redis is not
// configured. fallback is used when nothing has been recorded yet (0 picks
// the built-in default).
func NewRateService(db financeDB, cache *redis.Client, fallback float64, logger *logging.Logger) *RateService {
	if logger == nil {
		logger = logging.Default()
	}
	if fallback <= 0 {
		fallback = DefaultEURToMKD
	}
	return &RateService{db: db, cache: cache, logger: logger, fallback: fallback}
}

// Current returns the latest recorded rate, inserting the default row when
// the history is empty so clients always see a persisted rate.
func (s *RateService) Current(ctx context.Context) (*ExchangeRate, error) {
	var r ExchangeRate
	err := s.db.QueryRow(ctx,
		`SELECT id, eur_to_mkd, updated_at, COALESCE(updated_by, '') FROM exchange_rates ORDER BY updated_at DESC LIMIT 1`).
		Scan(&r.ID, &r.EURToMKD, &r.UpdatedAt, &r.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		seeded := NewExchangeRate(s.fallback, "")
		if err := s.insert(ctx, seeded); err != nil {
			return nil, err
		}
		s.cacheSet(ctx, seeded.EURToMKD)
		return seeded, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finance: current rate: %w", err)
	}
	s.cacheSet(ctx, r.EURToMKD)
	return &r, nil
}

// CurrentValue returns just the numeric rate, consulting the Redis cache
// first. It never fails: cache misses fall through to Postgres and a broken
// database falls back to the configured default.
func (s *RateService) CurrentValue(ctx context.Context) float64 {
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, rateCacheKey).Result(); err == nil {
			if rate, perr := strconv.ParseFloat(v, 64); perr == nil && rate > 0 {
				return rate
			}
			s.cache.Del(ctx, rateCacheKey)
		}
	}
	r, err := s.Current(ctx)
	if err != nil {
		s.logger.Warn("exchange rate lookup failed, using fallback", "error", err, "fallback", s.fallback)
		return s.fallback
	}
	return r.EURToMKD
}

// Update appends a new rate row and refreshes the cache.
func (s *RateService) Update(ctx context.Context, eurToMKD float64, updatedBy string) (*ExchangeRate, error) {
	r := NewExchangeRate(eurToMKD, updatedBy)
	if err := s.insert(ctx, r); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, r.EURToMKD)
	return r, nil
}

func (s *RateService) insert(ctx context.Context, r *ExchangeRate) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO exchange_rates (id, eur_to_mkd, updated_at, updated_by) VALUES ($1, $2, $3, NULLIF($4, ''))`,
		r.ID, r.EURToMKD, r.UpdatedAt, r.UpdatedBy,
	); err != nil {
		return fmt.Errorf("finance: insert rate: %w", err)
	}
	return nil
}

func (s *RateService) cacheSet(ctx context.Context, rate float64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, rateCacheKey, strconv.FormatFloat(rate, 'f', -1, 64), rateCacheTTL).Err(); err != nil {
		s.logger.Warn("exchange rate cache write failed", "error", err)
	}
}
