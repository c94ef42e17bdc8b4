package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository"
)

// CachedFingerprintRepository — read-through кэш над хранилищем отпечатков.
// Redis хранит наборы отпечатков как SET-ключи с TTL; источником истины
// остаётся нижележащее хранилище, ошибки кэша не прерывают запрос.
type CachedFingerprintRepository struct {
	repo       repository.FingerprintRepository
	client     *redis.Client
	ttl        time.Duration
	logger     *slog.Logger
	keyPattern string
}

func NewCachedFingerprintRepository(
	ctx context.Context,
	repo repository.FingerprintRepository,
	redisURL, password string,
	db int,
	ttl time.Duration,
	logger *slog.Logger,
) (*CachedFingerprintRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis для кэша отпечатков успешно установлено")

	return &CachedFingerprintRepository{
		repo:       repo,
		client:     client,
		ttl:        ttl,
		logger:     logger,
		keyPattern: "fingerprints:%d:%s:%s:%s",
	}, nil
}

func (c *CachedFingerprintRepository) cacheKey(key models.FingerprintKey) string {
	return fmt.Sprintf(c.keyPattern, key.PostID, key.Date, key.SiteKey, key.Type)
}

func (c *CachedFingerprintRepository) GetSet(ctx context.Context, key models.FingerprintKey) (map[string]struct{}, error) {
	cacheKey := c.cacheKey(key)

	members, err := c.client.SMembers(ctx, cacheKey).Result()
	if err != nil {
		c.logger.Warn("Ошибка при чтении набора отпечатков из Redis",
			"key", cacheKey,
			"error", err,
		)
	} else if len(members) > 0 {
		set := make(map[string]struct{}, len(members))
		for _, member := range members {
			set[member] = struct{}{}
		}

		return set, nil
	}

	set, err := c.repo.GetSet(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(set) > 0 {
		c.backfill(ctx, cacheKey, set)
	}

	return set, nil
}

func (c *CachedFingerprintRepository) AddToSet(ctx context.Context, key models.FingerprintKey, fingerprints []string) error {
	if err := c.repo.AddToSet(ctx, key, fingerprints); err != nil {
		return err
	}

	if len(fingerprints) == 0 {
		return nil
	}

	cacheKey := c.cacheKey(key)

	members := make([]interface{}, 0, len(fingerprints))
	for _, fp := range fingerprints {
		members = append(members, fp)
	}

	if err := c.client.SAdd(ctx, cacheKey, members...).Err(); err != nil {
		c.logger.Warn("Ошибка при пополнении набора отпечатков в Redis",
			"key", cacheKey,
			"error", err,
		)

		return nil
	}

	if err := c.client.Expire(ctx, cacheKey, c.ttl).Err(); err != nil {
		c.logger.Warn("Ошибка при установке TTL для набора отпечатков в Redis",
			"key", cacheKey,
			"error", err,
		)
	}

	return nil
}

func (c *CachedFingerprintRepository) DeleteSet(ctx context.Context, key models.FingerprintKey) error {
	if err := c.repo.DeleteSet(ctx, key); err != nil {
		return err
	}

	cacheKey := c.cacheKey(key)

	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Warn("Ошибка при удалении набора отпечатков из Redis",
			"key", cacheKey,
			"error", err,
		)
	}

	return nil
}

func (c *CachedFingerprintRepository) backfill(ctx context.Context, cacheKey string, set map[string]struct{}) {
	members := make([]interface{}, 0, len(set))
	for fp := range set {
		members = append(members, fp)
	}

	if err := c.client.SAdd(ctx, cacheKey, members...).Err(); err != nil {
		c.logger.Warn("Ошибка при наполнении кэша отпечатков",
			"key", cacheKey,
			"error", err,
		)

		return
	}

	if err := c.client.Expire(ctx, cacheKey, c.ttl).Err(); err != nil {
		c.logger.Warn("Ошибка при установке TTL для набора отпечатков в Redis",
			"key", cacheKey,
			"error", err,
		)
	}
}

func (c *CachedFingerprintRepository) Close() error {
	return c.client.Close()
}
