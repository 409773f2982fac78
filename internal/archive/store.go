// Package archive keeps a durable history of completed turns. Match state itself is
// memory-resident; the archive is for audit and replay after the fact.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
)

// TurnRecord is one resolved turn of one room.
type TurnRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoomCode   string    `gorm:"size:16;index:idx_room_turn" json:"roomCode"`
	Turn       int       `gorm:"index:idx_room_turn" json:"turn"`
	NextPhase  string    `gorm:"size:32" json:"nextPhase"`
	Winner     string    `gorm:"size:64" json:"winner,omitempty"`
	Actions    string    `gorm:"type:jsonb" json:"actions"`
	Events     string    `gorm:"type:jsonb" json:"events"`
	RecordedAt time.Time `json:"recordedAt"`
}

func NewTurnRecord(code string, turn int, declared map[string][]engine.Action, events []engine.Event, next engine.State) (TurnRecord, error) {
	actions, err := json.Marshal(declared)
	if err != nil {
		return TurnRecord{}, fmt.Errorf("marshal actions: %w", err)
	}
	evts, err := json.Marshal(events)
	if err != nil {
		return TurnRecord{}, fmt.Errorf("marshal events: %w", err)
	}
	return TurnRecord{
		RoomCode:   code,
		Turn:       turn,
		NextPhase:  string(next.Phase),
		Winner:     next.Winner,
		Actions:    string(actions),
		Events:     string(evts),
		RecordedAt: time.Now().UTC(),
	}, nil
}

type Store interface {
	SaveTurn(ctx context.Context, rec TurnRecord) error
	Turns(ctx context.Context, code string) ([]TurnRecord, error)
}

type GormStore struct {
	db *gorm.DB
}

// Open connects to Postgres through pgx and migrates the archive table.
func Open(dsn string) (*GormStore, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	sqlDB := stdlib.OpenDB(*cfg)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.AutoMigrate(&TurnRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) SaveTurn(ctx context.Context, rec TurnRecord) error {
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *GormStore) Turns(ctx context.Context, code string) ([]TurnRecord, error) {
	var out []TurnRecord
	err := s.db.WithContext(ctx).
		Where("room_code = ?", code).
		Order("turn asc").
		Find(&out).Error
	return out, err
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
