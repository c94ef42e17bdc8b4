package orm

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/central-university-dev/go-reward-tracker/internal/database"
	customerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

type FingerprintRepository struct {
	db        *database.PostgresDB
	sq        sq.StatementBuilderType
	txManager *txs.TxManager
}

func NewFingerprintRepository(db *database.PostgresDB, txManager *txs.TxManager) *FingerprintRepository {
	return &FingerprintRepository{
		db:        db,
		sq:        sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		txManager: txManager,
	}
}

func (r *FingerprintRepository) GetSet(ctx context.Context, key models.FingerprintKey) (map[string]struct{}, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("fingerprint").
		From("fingerprints").
		Where(sq.Eq{
			"post_id":     key.PostID,
			"date":        key.Date,
			"site_key":    key.SiteKey,
			"record_type": string(key.Type),
		})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "чтение набора отпечатков", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение набора отпечатков", Cause: err}
	}
	defer rows.Close()

	set := make(map[string]struct{})

	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "отпечатка", Cause: err}
		}

		set[fp] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение набора отпечатков", Cause: err}
	}

	return set, nil
}

func (r *FingerprintRepository) AddToSet(ctx context.Context, key models.FingerprintKey, fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}

	lockKey := fmt.Sprintf("fingerprints:%d:%s:%s:%s", key.PostID, key.Date, key.SiteKey, key.Type)

	return r.txManager.WithKeyedTransaction(ctx, lockKey, func(ctx context.Context) error {
		querier := txs.GetQuerier(ctx, r.db.Pool)

		insertQuery := r.sq.Insert("fingerprints").
			Columns("post_id", "date", "site_key", "record_type", "fingerprint")

		for _, fp := range fingerprints {
			insertQuery = insertQuery.Values(key.PostID, key.Date, key.SiteKey, string(key.Type), fp)
		}

		insertQuery = insertQuery.Suffix("ON CONFLICT DO NOTHING")

		query, args, err := insertQuery.ToSql()
		if err != nil {
			return &customerrors.ErrBuildSQLQuery{Operation: "пополнение набора отпечатков", Cause: err}
		}

		if _, err := querier.Exec(ctx, query, args...); err != nil {
			return &customerrors.ErrSQLExecution{Operation: "пополнение набора отпечатков", Cause: err}
		}

		return nil
	})
}

func (r *FingerprintRepository) DeleteSet(ctx context.Context, key models.FingerprintKey) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	deleteQuery := r.sq.Delete("fingerprints").
		Where(sq.Eq{
			"post_id":     key.PostID,
			"date":        key.Date,
			"site_key":    key.SiteKey,
			"record_type": string(key.Type),
		})

	query, args, err := deleteQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "удаление набора отпечатков", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление набора отпечатков", Cause: err}
	}

	return nil
}
