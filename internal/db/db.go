package db

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
	"github.com/LOGQS/coursegen-backend/internal/utils"
)

// Service owns the gorm handle used for generation-run archival.
// Postgres is used when POSTGRES_HOST is set; otherwise a local sqlite
// file keeps single-node deployments dependency-free.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	var (
		gdb *gorm.DB
		err error
	)
	if strings.TrimSpace(os.Getenv("POSTGRES_HOST")) != "" {
		postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
		postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
		postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		postgresName := utils.GetEnv("POSTGRES_NAME", "coursegen", log)

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

		log.Info("Connecting to Postgres...")
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			log.Error("Failed to connect to Postgres", "error", err)
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			log.Error("Failed to enable uuid-ossp extension", "error", err)
			return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
		}
	} else {
		path := utils.GetEnv("SQLITE_PATH", "coursegen.db", log)
		log.Info("Connecting to sqlite...", "path", path)
		gdb, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			log.Error("Failed to open sqlite database", "error", err)
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.GenerationRun{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
