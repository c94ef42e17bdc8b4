package orm

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/central-university-dev/go-reward-tracker/internal/database"
	customerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

type AlertRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewAlertRepository(db *database.PostgresDB) *AlertRepository {
	return &AlertRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AlertRepository) Append(ctx context.Context, alert *models.Alert) error {
	details, err := models.MarshalAlertDetails(alert.Details)
	if err != nil {
		return err
	}

	querier := txs.GetQuerier(ctx, r.db.Pool)

	insertQuery := r.sq.Insert("alerts").
		Columns("alert_type", "source_url", "severity", "message", "details", "notified", "created_at").
		Values(string(alert.Type), alert.SourceURL, string(alert.Severity), alert.Message, details, alert.Notified, alert.Timestamp).
		Suffix("RETURNING id")

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение алерта", Cause: err}
	}

	var id int64

	if err := querier.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение алерта", Cause: err}
	}

	alert.ID = id

	return nil
}

func (r *AlertRepository) ExistsRecent(ctx context.Context, sourceURL string, alertType models.AlertType, since time.Time) (bool, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("1").
		From("alerts").
		Where(sq.Eq{"source_url": sourceURL, "alert_type": string(alertType)}).
		Where(sq.GtOrEq{"created_at": since}).
		Limit(1)

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return false, &customerrors.ErrBuildSQLQuery{Operation: "проверка недавних алертов", Cause: err}
	}

	var exists bool

	err = querier.QueryRow(ctx, "SELECT EXISTS("+query+")", args...).Scan(&exists)
	if err != nil {
		return false, &customerrors.ErrSQLExecution{Operation: "проверка недавних алертов", Cause: err}
	}

	return exists, nil
}

func (r *AlertRepository) FindUnnotified(ctx context.Context, limit int) ([]*models.Alert, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("id", "alert_type", "source_url", "severity", "message", "details", "notified", "created_at").
		From("alerts").
		Where(sq.Eq{"notified": false}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)) //nolint:gosec // G115: Лимит из конфига

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "чтение неотправленных алертов", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение неотправленных алертов", Cause: err}
	}
	defer rows.Close()

	var alerts []*models.Alert

	for rows.Next() {
		alert := &models.Alert{}

		var (
			alertType string
			severity  string
			details   []byte
		)

		if err := rows.Scan(&alert.ID, &alertType, &alert.SourceURL, &severity, &alert.Message, &details, &alert.Notified, &alert.Timestamp); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "алерта", Cause: err}
		}

		alert.Type = models.AlertType(alertType)
		alert.Severity = models.AlertSeverity(severity)

		parsed, err := models.UnmarshalAlertDetails(alert.Type, details)
		if err != nil {
			return nil, err
		}

		alert.Details = parsed

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение неотправленных алертов", Cause: err}
	}

	return alerts, nil
}

func (r *AlertRepository) MarkNotified(ctx context.Context, alertID int64) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	updateQuery := r.sq.Update("alerts").
		Set("notified", true).
		Where(sq.Eq{"id": alertID})

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "отметка алерта отправленным", Cause: err}
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "отметка алерта отправленным", Cause: err}
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrAlertNotFound{AlertID: alertID}
	}

	return nil
}
