package orm

import (
	"database/sql"
	"fmt"

	"github.com/google/wire"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/testops/orchestrator/internal/infra/persistence/allocationrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/executionrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/metricrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/rulerepo"
	"github.com/testops/orchestrator/internal/infra/persistence/runnerrepo"
	"github.com/testops/orchestrator/internal/infra/persistence/schedulerepo"
	"github.com/testops/orchestrator/pkg/config"
)

var Provider = wire.NewSet(New)

// tables 注册所有需要迁移的PO
func tables() []any {
	return []any{
		&runnerrepo.Runner{},
		&runnerrepo.HealthHistory{},
		&executionrepo.QueueItem{},
		&allocationrepo.ResourceAllocation{},
		&rulerepo.LoadBalancingRule{},
		&metricrepo.ExecutionMetric{},
		&schedulerepo.RecurringSchedule{},
	}
}

type Storage struct {
	db *gorm.DB
}

func New(cfg config.DatabaseConfig) (*Storage, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	if err := db.AutoMigrate(tables()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) DB() *gorm.DB {
	return s.db
}

func (s *Storage) sqlDB() (*sql.DB, error) {
	return s.db.DB()
}

func (s *Storage) Close() error {
	sqlDB, err := s.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Ping() error {
	sqlDB, err := s.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
