// Package postgres persists ingested prediction records. The table is the
// system of record for ad-hoc corrections and reruns; the parquet stores
// remain the read path.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Prediction is the relational form of one ingested record. The natural key
// is (location, date, version); model_no and value are payload so a rerun
// of the same day replaces the previous record instead of duplicating it.
type Prediction struct {
	Location  string    `gorm:"primaryKey;size:12"`
	Date      time.Time `gorm:"primaryKey;type:date"`
	Version   string    `gorm:"primaryKey;size:32"`
	ModelNo   int32     `gorm:"column:model_no"`
	Value     float64
	UpdatedAt time.Time
}

// TableName implements gorm's table naming override.
func (Prediction) TableName() string { return "predictions" }

// Store wraps the predictions table.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New opens a connection, runs the schema migration, and returns the store.
func New(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", mapError(err))
	}
	if err := db.AutoMigrate(&Prediction{}); err != nil {
		return nil, fmt.Errorf("migrate predictions table: %w", mapError(err))
	}
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an existing gorm handle. Used by tests.
func NewWithDB(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// UpsertBatch writes records in one statement, replacing model_no and value
// on key collision. Returns the number of rows written.
func (s *Store) UpsertBatch(ctx context.Context, obs []domain.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}

	rows := make([]Prediction, len(obs))
	for i, o := range obs {
		rows[i] = Prediction{
			Location: o.Location,
			Date:     o.Date,
			Version:  o.Version,
			ModelNo:  o.ModelNo,
			Value:    o.Value,
		}
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "location"},
			{Name: "date"},
			{Name: "version"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"model_no", "value", "updated_at"}),
	}).Create(&rows)
	if result.Error != nil {
		s.logger.Error("prediction upsert failed", "records", len(obs), "error", result.Error)
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

// Ping verifies connectivity for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return mapError(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// mapError folds driver errors into the domain taxonomy: constraint
// violations become ErrConflict, connectivity failures become
// ErrUpstreamUnavailable.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case isConstraintViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
}

func isConstraintViolation(err error) bool {
	msg := err.Error()
	// Postgres class 23 errors surface with these phrases through the driver.
	return strings.Contains(msg, "duplicate key") ||
		(strings.Contains(msg, "violates") && strings.Contains(msg, "constraint"))
}
