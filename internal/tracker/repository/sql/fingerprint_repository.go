package sql

import (
	"fmt"

	"context"

	"github.com/central-university-dev/go-reward-tracker/internal/database"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type FingerprintRepository struct {
	db *database.PostgresDB
}

func NewFingerprintRepository(db *database.PostgresDB) *FingerprintRepository {
	return &FingerprintRepository{db: db}
}

func (r *FingerprintRepository) GetSet(ctx context.Context, key models.FingerprintKey) (map[string]struct{}, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT fingerprint FROM fingerprints WHERE post_id = $1 AND date = $2 AND site_key = $3 AND record_type = $4",
		key.PostID, key.Date, key.SiteKey, string(key.Type))
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении набора отпечатков: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})

	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании отпечатка: %w", err)
		}

		set[fp] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при чтении набора отпечатков: %w", err)
	}

	return set, nil
}

// AddToSet объединяет новые отпечатки с персистентным набором.
// ON CONFLICT DO NOTHING делает объединение идемпотентным и безопасным
// при конкурентных записях по одному ключу.
func (r *FingerprintRepository) AddToSet(ctx context.Context, key models.FingerprintKey, fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, fp := range fingerprints {
		_, err = tx.Exec(ctx,
			"INSERT INTO fingerprints (post_id, date, site_key, record_type, fingerprint) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING",
			key.PostID, key.Date, key.SiteKey, string(key.Type), fp)
		if err != nil {
			return fmt.Errorf("ошибка при сохранении отпечатка: %w", err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

func (r *FingerprintRepository) DeleteSet(ctx context.Context, key models.FingerprintKey) error {
	_, err := r.db.Pool.Exec(ctx,
		"DELETE FROM fingerprints WHERE post_id = $1 AND date = $2 AND site_key = $3 AND record_type = $4",
		key.PostID, key.Date, key.SiteKey, string(key.Type))
	if err != nil {
		return fmt.Errorf("ошибка при удалении набора отпечатков: %w", err)
	}

	return nil
}
