package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilchouksey/learnpath/config"
	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the entity store handle passed down to routers and services
type Storage interface {
	Init() error
	Close() error
	HealthCheck(ctx context.Context) error
	GetDB() *gorm.DB
}

type GORMStore struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ Storage = (*GORMStore)(nil)

// utcNow stamps created_at/updated_at so every stored time shares one zone
func utcNow() time.Time { return time.Now().UTC() }

// Open connects to the database selected by DB_DRIVER
func Open(env *config.EnvironmentVariable, log *zap.Logger) (*GORMStore, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	switch env.DB_DRIVER {
	case "sqlite":
		return openSQLite(env.DB_PATH, gormLogger, log)
	case "postgres", "":
		return openPostgres(env, gormLogger, log)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", env.DB_DRIVER)
	}
}

func openPostgres(env *config.EnvironmentVariable, gormLogger logger.Interface, log *zap.Logger) (*GORMStore, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        utcNow,
	})
	if err != nil {
		log.Error("unable to connect to PostgreSQL", zap.Error(err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL", zap.String("host", env.DB_HOST), zap.String("db", env.DB_NAME))
	return &GORMStore{db: db, log: log}, nil
}

// OpenSQLite opens a SQLite database; ":memory:" gives a private database
// that lives as long as the store.
func OpenSQLite(dsn string, log *zap.Logger) (*GORMStore, error) {
	return openSQLite(dsn, logger.Default.LogMode(logger.Silent), log)
}

func openSQLite(dsn string, gormLogger logger.Interface, log *zap.Logger) (*GORMStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        utcNow,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite serialises writers; one connection also keeps ":memory:" alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	log.Info("opened SQLite database", zap.String("dsn", dsn))
	return &GORMStore{db: db, log: log}, nil
}

// Init runs AutoMigrate for every model, parents first
func (s *GORMStore) Init() error {
	s.log.Info("running AutoMigrate")

	err := s.db.AutoMigrate(
		&model.User{},
		&model.JWTTokenBlacklist{},

		// Catalog
		&model.Major{},
		&model.Subject{},
		&model.Lesson{},
		&model.Exam{},
		&model.ExamQuestion{},

		// Learner state
		&model.Enrollment{},
		&model.LessonProgress{},
		&model.ExamAttempt{},

		// Audit & jobs
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	)
	if err != nil {
		s.log.Error("AutoMigrate failed", zap.Error(err))
		return err
	}

	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing database connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
