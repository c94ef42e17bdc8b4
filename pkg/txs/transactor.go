package txs

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TxManager struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewTxManager(db *pgxpool.Pool, logger *slog.Logger) *TxManager {
	return &TxManager{
		db:     db,
		logger: logger,
	}
}

func injectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func (t *TxManager) WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		t.logger.Error("Ошибка при начале транзакции", "error", err)
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	txCtx := injectTx(ctx, tx)

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Паника в транзакции, выполняем rollback", "panic", r)

			_ = tx.Rollback(ctx)

			panic(r)
		}
	}()

	if err := txFunc(txCtx); err != nil {
		t.logger.Error("Ошибка в транзакции, выполняем rollback", "error", err)

		if rbErr := tx.Rollback(ctx); rbErr != nil {
			t.logger.Error("Ошибка при rollback транзакции", "error", rbErr)
			return fmt.Errorf("ошибка в транзакции: %w, ошибка rollback: %v", err, rbErr)
		}

		return fmt.Errorf("ошибка в транзакции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.logger.Error("Ошибка при commit транзакции", "error", err)
		return fmt.Errorf("ошибка при commit транзакции: %w", err)
	}

	return nil
}

// WithKeyedTransaction выполняет txFunc в транзакции, удерживая
// advisory-блокировку по строковому ключу. Конкурентные
// read-modify-write по одному набору отпечатков или одному источнику
// сериализуются на стороне базы вместо негласного "последняя запись
// побеждает".
func (t *TxManager) WithKeyedTransaction(ctx context.Context, key string, txFunc func(ctx context.Context) error) error {
	return t.WithTransaction(ctx, func(txCtx context.Context) error {
		querier := GetQuerier(txCtx, t.db)

		if _, err := querier.Exec(txCtx, "SELECT pg_advisory_xact_lock($1)", keyHash(key)); err != nil {
			return fmt.Errorf("ошибка при взятии advisory-блокировки: %w", err)
		}

		return txFunc(txCtx)
	})
}

func keyHash(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))

	return int64(h.Sum64()) //nolint:gosec // G115: Хэш используется только как ключ блокировки
}
