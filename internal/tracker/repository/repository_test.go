package repository_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/database"
	customerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

var (
	testDB *database.PostgresDB
	logger *slog.Logger
)

func setupTestDatabase(ctx context.Context) (*database.PostgresDB, func(), error) {
	dbName := "testdb"
	dbUser := "testuser"
	dbPassword := "testpassword"

	container, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(10*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось запустить контейнер postgres: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось получить хост контейнера: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось получить порт контейнера: %w", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, host, port.Port(), dbName)

	migrationsPath, _ := filepath.Abs("../../../migrations")
	migrateURL := fmt.Sprintf("file://%s", migrationsPath)

	m, err := migrate.New(migrateURL, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, nil, fmt.Errorf("не удалось применить миграции: %w", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return nil, nil, fmt.Errorf("ошибка закрытия источника миграций: %w", sourceErr)
	}

	if dbErr != nil {
		return nil, nil, fmt.Errorf("ошибка закрытия подключения БД миграций: %w", dbErr)
	}

	logger.Info("Миграции успешно применены к тестовой БД")

	testCfg := &config.Config{
		DatabaseURL:     dsn,
		DatabaseMaxConn: 5,
	}

	db, err := database.NewPostgresDB(ctx, testCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось подключиться к тестовой БД: %w", err)
	}

	cleanup := func() {
		db.Close()

		if err := container.Terminate(ctx); err != nil {
			logger.Error("Не удалось остановить контейнер postgres", "error", err)
		}
	}

	return db, cleanup, nil
}

func TestMain(m *testing.M) {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	exitCode := func() int {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var cleanup func()

		var err error

		testDB, cleanup, err = setupTestDatabase(ctx)
		if err != nil {
			logger.Error("Ошибка при настройке тестовой БД", "error", err)
			return 1
		}

		code := m.Run()

		cleanup()

		return code
	}()

	os.Exit(exitCode)
}

func clearTables(ctx context.Context, t *testing.T) {
	t.Helper()

	tables := []string{
		"extraction_history",
		"source_monitoring",
		"fingerprints",
		"alerts",
	}
	for _, table := range tables {
		_, err := testDB.Pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		require.NoErrorf(t, err, "Не удалось очистить таблицу %s", table)
	}
}

func newFactory(t *testing.T, accessType config.AccessType) *repository.Factory {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	txManager := txs.NewTxManager(testDB.Pool, quiet)

	cfg := &config.Config{
		DatabaseAccessType: accessType,
		HistoryLimit:       30,
	}

	return repository.NewFactory(testDB, txManager, cfg, quiet)
}

func forEachAccessType(t *testing.T, test func(t *testing.T, factory *repository.Factory)) {
	t.Helper()

	for _, accessType := range []config.AccessType{config.SQLAccess, config.SquirrelAccess} {
		t.Run(string(accessType), func(t *testing.T) {
			clearTables(context.Background(), t)
			test(t, newFactory(t, accessType))
		})
	}
}

func fingerprintKey(date string) models.FingerprintKey {
	return models.FingerprintKey{
		PostID:  42,
		Date:    date,
		SiteKey: "rewards-example",
		Type:    models.RecordTypeLink,
	}
}

func TestFingerprintRepository_SetUnion(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		ctx := context.Background()

		repo, err := factory.CreateFingerprintRepository()
		require.NoError(t, err)

		key := fingerprintKey("2026-08-26")

		require.NoError(t, repo.AddToSet(ctx, key, []string{"fp-1", "fp-2"}))

		// Повторная запись с пересечением идемпотентна.
		require.NoError(t, repo.AddToSet(ctx, key, []string{"fp-2", "fp-3"}))

		set, err := repo.GetSet(ctx, key)
		require.NoError(t, err)
		assert.Len(t, set, 3)
		assert.Contains(t, set, "fp-1")
		assert.Contains(t, set, "fp-3")

		// Другой день — другой набор.
		other, err := repo.GetSet(ctx, fingerprintKey("2026-08-25"))
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestFingerprintRepository_DeleteSet(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		ctx := context.Background()

		repo, err := factory.CreateFingerprintRepository()
		require.NoError(t, err)

		key := fingerprintKey("2026-08-26")
		require.NoError(t, repo.AddToSet(ctx, key, []string{"fp-1"}))
		require.NoError(t, repo.DeleteSet(ctx, key))

		set, err := repo.GetSet(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, set)
	})
}

func TestMonitoringRepository_RoundTrip(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		ctx := context.Background()

		repo, err := factory.CreateMonitoringRepository()
		require.NoError(t, err)

		_, err = repo.Get(ctx, "https://rewards.example.com")
		assert.ErrorIs(t, err, &customerrors.ErrSourceNotFound{})

		mon := &models.SourceMonitoring{
			SourceURL: "https://rewards.example.com",
			Status:    models.StatusHealthy,
			LastCheck: time.Now().UTC().Truncate(time.Second),
			Fingerprint: &models.HTMLFingerprint{
				DOMHash:           "aaaa111122223333",
				HeadingStructure:  []string{"h1:Награды"},
				CriticalSelectors: []string{".reward-link"},
				HTMLSize:          12345,
				HeadingCount:      3,
				LinkCount:         7,
			},
			History: []models.ExtractionRecord{
				{Date: "2026-08-26", LinksFound: 7, Confidence: 1.0, Success: true, Timestamp: time.Now().UTC()},
			},
		}

		require.NoError(t, repo.Save(ctx, mon))

		loaded, err := repo.Get(ctx, "https://rewards.example.com")
		require.NoError(t, err)
		assert.Equal(t, models.StatusHealthy, loaded.Status)
		assert.Equal(t, 0, loaded.ConsecutiveFailures)
		require.NotNil(t, loaded.Fingerprint)
		assert.Equal(t, "aaaa111122223333", loaded.Fingerprint.DOMHash)
		assert.Equal(t, 7, loaded.Fingerprint.LinkCount)
		require.Len(t, loaded.History, 1)
		assert.Equal(t, "2026-08-26", loaded.History[0].Date)
		assert.True(t, loaded.History[0].Success)
	})
}

func TestMonitoringRepository_AppendsLastHistoryRecord(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		ctx := context.Background()

		repo, err := factory.CreateMonitoringRepository()
		require.NoError(t, err)

		mon := &models.SourceMonitoring{
			SourceURL: "https://rewards.example.com",
			Status:    models.StatusHealthy,
			History: []models.ExtractionRecord{
				{Date: "2026-08-25", LinksFound: 5, Confidence: 1.0, Success: true, Timestamp: time.Now().UTC().Add(-time.Hour)},
			},
		}
		require.NoError(t, repo.Save(ctx, mon))

		mon.History = append(mon.History, models.ExtractionRecord{
			Date: "2026-08-26", LinksFound: 6, Confidence: 1.0, Success: true, Timestamp: time.Now().UTC(),
		})
		mon.ConsecutiveFailures = 0
		require.NoError(t, repo.Save(ctx, mon))

		loaded, err := repo.Get(ctx, "https://rewards.example.com")
		require.NoError(t, err)
		require.Len(t, loaded.History, 2)
		assert.Equal(t, "2026-08-25", loaded.History[0].Date)
		assert.Equal(t, "2026-08-26", loaded.History[1].Date)
	})
}

func TestMonitoringRepository_GetAll(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		ctx := context.Background()

		repo, err := factory.CreateMonitoringRepository()
		require.NoError(t, err)

		for _, url := range []string{"https://b.example.com", "https://a.example.com"} {
			require.NoError(t, repo.Save(ctx, &models.SourceMonitoring{
				SourceURL: url,
				Status:    models.StatusUnknown,
			}))
		}

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "https://a.example.com", all[0].SourceURL)
		assert.Equal(t, "https://b.example.com", all[1].SourceURL)
	})
}

func TestAlertRepository_Lifecycle(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		ctx := context.Background()

		repo, err := factory.CreateAlertRepository()
		require.NoError(t, err)

		now := time.Now().UTC()

		alert := &models.Alert{
			Type:      models.AlertZeroLinks,
			SourceURL: "https://rewards.example.com",
			Severity:  models.SeverityCritical,
			Message:   "за 2026-08-26 не извлечено ни одной ссылки (3 проверок)",
			Timestamp: now,
			Details:   &models.ZeroLinksDetails{ChecksToday: 3},
		}

		require.NoError(t, repo.Append(ctx, alert))
		assert.NotZero(t, alert.ID)

		exists, err := repo.ExistsRecent(ctx, "https://rewards.example.com", models.AlertZeroLinks, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsRecent(ctx, "https://rewards.example.com", models.AlertStructureChanged, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, exists)

		pending, err := repo.FindUnnotified(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, alert.ID, pending[0].ID)

		details, ok := pending[0].Details.(*models.ZeroLinksDetails)
		require.True(t, ok)
		assert.Equal(t, 3, details.ChecksToday)

		require.NoError(t, repo.MarkNotified(ctx, alert.ID))

		pending, err = repo.FindUnnotified(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestAlertRepository_MarkNotifiedUnknownID(t *testing.T) {
	forEachAccessType(t, func(t *testing.T, factory *repository.Factory) {
		repo, err := factory.CreateAlertRepository()
		require.NoError(t, err)

		err = repo.MarkNotified(context.Background(), 999999)
		assert.ErrorIs(t, err, &customerrors.ErrAlertNotFound{})
	})
}
