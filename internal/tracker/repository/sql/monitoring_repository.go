package sql

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/central-university-dev/go-reward-tracker/internal/database"
	customerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type MonitoringRepository struct {
	db           *database.PostgresDB
	historyLimit int
}

func NewMonitoringRepository(db *database.PostgresDB, historyLimit int) *MonitoringRepository {
	return &MonitoringRepository{
		db:           db,
		historyLimit: historyLimit,
	}
}

func (r *MonitoringRepository) Get(ctx context.Context, sourceURL string) (*models.SourceMonitoring, error) {
	mon := &models.SourceMonitoring{SourceURL: sourceURL}

	var fingerprintJSON []byte

	err := r.db.Pool.QueryRow(ctx,
		"SELECT html_fingerprint, status, consecutive_failures, COALESCE(last_check, 'epoch'::timestamptz) FROM source_monitoring WHERE source_url = $1",
		sourceURL).Scan(&fingerprintJSON, &mon.Status, &mon.ConsecutiveFailures, &mon.LastCheck)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrSourceNotFound{URL: sourceURL}
		}

		return nil, fmt.Errorf("ошибка при чтении мониторинга источника: %w", err)
	}

	if len(fingerprintJSON) > 0 {
		fingerprint := &models.HTMLFingerprint{}
		if err := json.Unmarshal(fingerprintJSON, fingerprint); err != nil {
			return nil, fmt.Errorf("ошибка при десериализации отпечатка страницы: %w", err)
		}

		mon.Fingerprint = fingerprint
	}

	history, err := r.loadHistory(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	mon.History = history

	return mon, nil
}

// Save фиксирует состояние источника и последнюю запись его истории.
// Писатели по одному источнику сериализуются advisory-блокировкой.
func (r *MonitoringRepository) Save(ctx context.Context, mon *models.SourceMonitoring) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", mon.SourceURL)
	if err != nil {
		return fmt.Errorf("ошибка при взятии advisory-блокировки: %w", err)
	}

	var fingerprintJSON []byte

	if mon.Fingerprint != nil {
		fingerprintJSON, err = json.Marshal(mon.Fingerprint)
		if err != nil {
			return fmt.Errorf("ошибка при сериализации отпечатка страницы: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO source_monitoring (source_url, html_fingerprint, status, consecutive_failures, last_check, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (source_url) DO UPDATE SET
		   html_fingerprint = EXCLUDED.html_fingerprint,
		   status = EXCLUDED.status,
		   consecutive_failures = EXCLUDED.consecutive_failures,
		   last_check = EXCLUDED.last_check,
		   updated_at = now()`,
		mon.SourceURL, fingerprintJSON, string(mon.Status), mon.ConsecutiveFailures, mon.LastCheck)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении мониторинга источника: %w", err)
	}

	if len(mon.History) > 0 {
		last := mon.History[len(mon.History)-1]

		_, err = tx.Exec(ctx,
			"INSERT INTO extraction_history (source_url, date, links_found, confidence, success, error, created_at) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)",
			mon.SourceURL, last.Date, last.LinksFound, last.Confidence, last.Success, last.Error, last.Timestamp)
		if err != nil {
			return fmt.Errorf("ошибка при сохранении записи истории: %w", err)
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM extraction_history WHERE source_url = $1 AND id NOT IN (
			   SELECT id FROM extraction_history WHERE source_url = $1 ORDER BY created_at DESC, id DESC LIMIT $2
			 )`,
			mon.SourceURL, r.historyLimit)
		if err != nil {
			return fmt.Errorf("ошибка при усечении истории извлечений: %w", err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

func (r *MonitoringRepository) GetAll(ctx context.Context) ([]*models.SourceMonitoring, error) {
	rows, err := r.db.Pool.Query(ctx, "SELECT source_url FROM source_monitoring ORDER BY source_url")
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении списка источников: %w", err)
	}
	defer rows.Close()

	var urls []string

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании источника: %w", err)
		}

		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при чтении списка источников: %w", err)
	}

	result := make([]*models.SourceMonitoring, 0, len(urls))

	for _, url := range urls {
		mon, err := r.Get(ctx, url)
		if err != nil {
			return nil, err
		}

		result = append(result, mon)
	}

	return result, nil
}

func (r *MonitoringRepository) loadHistory(ctx context.Context, sourceURL string) ([]models.ExtractionRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT date, links_found, confidence, success, COALESCE(error, ''), created_at FROM (
		   SELECT * FROM extraction_history WHERE source_url = $1 ORDER BY created_at DESC, id DESC LIMIT $2
		 ) h ORDER BY created_at ASC, id ASC`,
		sourceURL, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении истории извлечений: %w", err)
	}
	defer rows.Close()

	var history []models.ExtractionRecord

	for rows.Next() {
		var record models.ExtractionRecord

		if err := rows.Scan(&record.Date, &record.LinksFound, &record.Confidence, &record.Success, &record.Error, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи истории: %w", err)
		}

		history = append(history, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при чтении истории извлечений: %w", err)
	}

	return history, nil
}
