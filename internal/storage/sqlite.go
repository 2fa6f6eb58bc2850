// Package storage provides durable per-case slots for draft state. Every
// write replaces the whole slot with a single JSON value so a reader never
// observes a partially updated state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
)

var (
	errMissingDatabase = errors.New("storage: database handle is required")
	errMissingPath     = errors.New("storage: database path is required")
)

// DraftRecord is the persisted row backing one case's draft slot.
type DraftRecord struct {
	CaseID           string `gorm:"column:case_id;primaryKey;size:190;not null"`
	StateJSON        string `gorm:"column:state_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DraftRecord) TableName() string {
	return "draft_states"
}

// OpenSQLite establishes a SQLite connection and migrates the draft schema.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, errMissingPath
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&DraftRecord{}); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("draft database initialized", zap.String("path", path))
	}
	return db, nil
}

// SQLiteStore implements draft.Store on a GORM SQLite handle.
type SQLiteStore struct {
	db    *gorm.DB
	clock func() time.Time
}

// SQLiteStoreConfig describes a SQLiteStore.
type SQLiteStoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// NewSQLiteStore validates the configuration and returns a SQLiteStore.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SQLiteStore{
		db:    cfg.Database,
		clock: clock,
	}, nil
}

// Load reads the case's slot. A missing row yields (nil, nil).
func (s *SQLiteStore) Load(ctx context.Context, caseID draft.CaseID) (*draft.PersistedDraftState, error) {
	var record DraftRecord
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID.String()).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load draft state: %w", err)
	}

	var state draft.PersistedDraftState
	if err := json.Unmarshal([]byte(record.StateJSON), &state); err != nil {
		return nil, fmt.Errorf("storage: decode draft state: %w", err)
	}
	return &state, nil
}

// Persist upserts the case's slot with the full replacement state.
func (s *SQLiteStore) Persist(ctx context.Context, caseID draft.CaseID, state draft.PersistedDraftState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("storage: encode draft state: %w", err)
	}

	record := DraftRecord{
		CaseID:           caseID.String(),
		StateJSON:        string(payload),
		UpdatedAtSeconds: s.clock().UTC().Unix(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "case_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_json", "updated_at_s"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("storage: persist draft state: %w", err)
	}
	return nil
}
