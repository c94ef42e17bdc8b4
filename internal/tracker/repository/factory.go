package repository

import (
	"log/slog"

	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/database"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository/orm"
	sqlrepo "github.com/central-university-dev/go-reward-tracker/internal/tracker/repository/sql"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

type Factory struct {
	db        *database.PostgresDB
	txManager *txs.TxManager
	config    *config.Config
	logger    *slog.Logger
}

func NewFactory(db *database.PostgresDB, txManager *txs.TxManager, config *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		db:        db,
		txManager: txManager,
		config:    config,
		logger:    logger,
	}
}

func (f *Factory) CreateFingerprintRepository() (FingerprintRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория отпечатков")
		return orm.NewFingerprintRepository(f.db, f.txManager), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория отпечатков")
		return sqlrepo.NewFingerprintRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateMonitoringRepository() (MonitoringRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория мониторинга")
		return orm.NewMonitoringRepository(f.db, f.txManager, f.config.HistoryLimit), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория мониторинга")
		return sqlrepo.NewMonitoringRepository(f.db, f.config.HistoryLimit), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateAlertRepository() (AlertRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория алертов")
		return orm.NewAlertRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория алертов")
		return sqlrepo.NewAlertRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}
