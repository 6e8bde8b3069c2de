package database

import (
	"errors"
	"fmt"

	"browserAgent/internal/config"
	"browserAgent/internal/logger"
	"browserAgent/internal/migrations"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrDisabled возвращается Open, если драйвер журнала не задан.
var ErrDisabled = errors.New("журнал выключен")

type Database struct {
	DB *gorm.DB
}

// Open подключает журнал. PostgreSQL получает схему из встроенных миграций,
// SQLite - через AutoMigrate моделей.
func Open(cfg config.Journal, log *logger.Zap) (*Database, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "":
		return nil, ErrDisabled
	case "postgres":
		if cfg.Migrate {
			if err := migrations.Run(cfg.DSN, log); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
		if err == nil && cfg.Migrate {
			err = db.AutoMigrate(&Task{}, &AgentStep{}, &LlmLog{})
		}
	default:
		return nil, fmt.Errorf("неизвестный драйвер журнала %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к журналу (%s): %w", cfg.Driver, err)
	}

	log.Info("Журнал подключен", zap.String("driver", cfg.Driver))
	return &Database{DB: db}, nil
}

func (d *Database) Close(log *logger.Zap) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		log.Warn("Ошибка получения соединения журнала", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("Ошибка закрытия журнала", zap.Error(err))
	}
}
