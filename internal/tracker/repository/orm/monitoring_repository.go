package orm

import (
	"context"
	"encoding/json"
	stderrors "errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/central-university-dev/go-reward-tracker/internal/database"
	customerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

type MonitoringRepository struct {
	db           *database.PostgresDB
	sq           sq.StatementBuilderType
	txManager    *txs.TxManager
	historyLimit int
}

func NewMonitoringRepository(db *database.PostgresDB, txManager *txs.TxManager, historyLimit int) *MonitoringRepository {
	return &MonitoringRepository{
		db:           db,
		sq:           sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		txManager:    txManager,
		historyLimit: historyLimit,
	}
}

func (r *MonitoringRepository) Get(ctx context.Context, sourceURL string) (*models.SourceMonitoring, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("html_fingerprint", "status", "consecutive_failures", "COALESCE(last_check, 'epoch'::timestamptz)").
		From("source_monitoring").
		Where(sq.Eq{"source_url": sourceURL})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "чтение мониторинга источника", Cause: err}
	}

	mon := &models.SourceMonitoring{SourceURL: sourceURL}

	var fingerprintJSON []byte

	err = querier.QueryRow(ctx, query, args...).Scan(&fingerprintJSON, &mon.Status, &mon.ConsecutiveFailures, &mon.LastCheck)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrSourceNotFound{URL: sourceURL}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "чтение мониторинга источника", Cause: err}
	}

	if len(fingerprintJSON) > 0 {
		fingerprint := &models.HTMLFingerprint{}
		if err := json.Unmarshal(fingerprintJSON, fingerprint); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "отпечатка страницы", Cause: err}
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

func (r *MonitoringRepository) Save(ctx context.Context, mon *models.SourceMonitoring) error {
	return r.txManager.WithKeyedTransaction(ctx, "monitoring:"+mon.SourceURL, func(ctx context.Context) error {
		querier := txs.GetQuerier(ctx, r.db.Pool)

		var fingerprintJSON []byte

		if mon.Fingerprint != nil {
			data, err := json.Marshal(mon.Fingerprint)
			if err != nil {
				return &customerrors.ErrSQLScan{Entity: "отпечатка страницы", Cause: err}
			}

			fingerprintJSON = data
		}

		upsertQuery := r.sq.Insert("source_monitoring").
			Columns("source_url", "html_fingerprint", "status", "consecutive_failures", "last_check", "updated_at").
			Values(mon.SourceURL, fingerprintJSON, string(mon.Status), mon.ConsecutiveFailures, mon.LastCheck, sq.Expr("now()")).
			Suffix(`ON CONFLICT (source_url) DO UPDATE SET
				html_fingerprint = EXCLUDED.html_fingerprint,
				status = EXCLUDED.status,
				consecutive_failures = EXCLUDED.consecutive_failures,
				last_check = EXCLUDED.last_check,
				updated_at = now()`)

		query, args, err := upsertQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "сохранение мониторинга источника", Cause: err}
		}

		if _, err := querier.Exec(ctx, query, args...); err != nil {
			return &customerrors.ErrSQLExecution{Operation: "сохранение мониторинга источника", Cause: err}
		}

		if len(mon.History) == 0 {
			return nil
		}

		last := mon.History[len(mon.History)-1]

		insertQuery := r.sq.Insert("extraction_history").
			Columns("source_url", "date", "links_found", "confidence", "success", "error", "created_at").
			Values(mon.SourceURL, last.Date, last.LinksFound, last.Confidence, last.Success, sq.Expr("NULLIF(?, '')", last.Error), last.Timestamp)

		query, args, err = insertQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "сохранение записи истории", Cause: err}
		}

		if _, err := querier.Exec(ctx, query, args...); err != nil {
			return &customerrors.ErrSQLExecution{Operation: "сохранение записи истории", Cause: err}
		}

		pruneSQL := `DELETE FROM extraction_history WHERE source_url = $1 AND id NOT IN (
			SELECT id FROM extraction_history WHERE source_url = $1 ORDER BY created_at DESC, id DESC LIMIT $2
		)`

		if _, err := querier.Exec(ctx, pruneSQL, mon.SourceURL, r.historyLimit); err != nil {
			return &customerrors.ErrSQLExecution{Operation: "усечение истории извлечений", Cause: err}
		}

		return nil
	})
}

func (r *MonitoringRepository) GetAll(ctx context.Context) ([]*models.SourceMonitoring, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("source_url").From("source_monitoring").OrderBy("source_url")

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "чтение списка источников", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение списка источников", Cause: err}
	}
	defer rows.Close()

	var urls []string

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "источника", Cause: err}
		}

		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение списка источников", Cause: err}
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
	querier := txs.GetQuerier(ctx, r.db.Pool)

	historySQL := `SELECT date, links_found, confidence, success, COALESCE(error, ''), created_at FROM (
		SELECT * FROM extraction_history WHERE source_url = $1 ORDER BY created_at DESC, id DESC LIMIT $2
	) h ORDER BY created_at ASC, id ASC`

	rows, err := querier.Query(ctx, historySQL, sourceURL, r.historyLimit)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение истории извлечений", Cause: err}
	}
	defer rows.Close()

	var history []models.ExtractionRecord

	for rows.Next() {
		var record models.ExtractionRecord

		if err := rows.Scan(&record.Date, &record.LinksFound, &record.Confidence, &record.Success, &record.Error, &record.Timestamp); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "записи истории", Cause: err}
		}

		history = append(history, record)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение истории извлечений", Cause: err}
	}

	return history, nil
}
