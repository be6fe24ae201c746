package leaderboard

import (
	"context"
	"fmt"
	"time"

	"spinloot_backend/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pointsKey = "leaderboard:points"

// Service mirrors users' point totals into a Redis sorted set so the
// leaderboard endpoint does not scan the users table on every request.
// Writes are best effort; the repository remains the source of truth.
type Service struct {
	client *redis.Client
}

type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func New(cfg Config) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Logger().Info("Connected to redis successfully")

	return &Service{client: client}, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

// Entry is one leaderboard row read back from the sorted set.
type Entry struct {
	WalletAddress string
	Points        int
}

// SetScore records a user's current total. Failures are logged, not
// returned: a stale leaderboard must never fail a points grant.
func (s *Service) SetScore(ctx context.Context, walletAddress string, totalPoints int) {
	err := s.client.ZAdd(ctx, pointsKey, redis.Z{
		Score:  float64(totalPoints),
		Member: walletAddress,
	}).Err()
	if err != nil {
		logger.Logger().Warn("failed to update leaderboard score",
			zap.String("wallet", walletAddress),
			zap.Error(err))
	}
}

// Top returns the highest totals, best first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, pointsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		wallet, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			WalletAddress: wallet,
			Points:        int(z.Score),
		})
	}

	return entries, nil
}
