package state

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/errors"
	"main/internal/model"
	"main/pkg/conn"
)

const (
	kindTrades    = "trades"
	kindPositions = "positions"
)

// snapshotRow is one named blob, keyed by strategy and blob kind.
type snapshotRow struct {
	Strategy  string    `gorm:"primaryKey;size:128"`
	Kind      string    `gorm:"primaryKey;size:16"`
	Payload   []byte    `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (snapshotRow) TableName() string {
	return "strategy_snapshots"
}

// PostgresStore keeps the two snapshot blobs in a single table, overwritten
// by upsert on every registry mutation.
type PostgresStore struct {
	client *conn.Client
}

// NewPostgresStore connects and ensures the snapshot table exists.
func NewPostgresStore(ctx context.Context, option conn.Option) (*PostgresStore, error) {
	client, err := conn.New(ctx, option)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	if err := client.DB().AutoMigrate(&snapshotRow{}); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "migrate snapshot table")
	}
	return &PostgresStore{client: client}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.client.Close()
}

// Write upserts both blobs inside one transaction so a recovered snapshot
// never mixes trades and positions from different writes.
func (s *PostgresStore) Write(ctx context.Context, snapshot Snapshot) error {
	tradesPayload, err := json.Marshal(snapshot.Trades)
	if err != nil {
		return errors.Wrap(err, "encode trades blob")
	}
	positionsPayload, err := json.Marshal(snapshot.Positions)
	if err != nil {
		return errors.Wrap(err, "encode positions blob")
	}

	now := time.Now().UTC()
	rows := []snapshotRow{
		{Strategy: snapshot.Strategy, Kind: kindTrades, Payload: tradesPayload, UpdatedAt: now},
		{Strategy: snapshot.Strategy, Kind: kindPositions, Payload: positionsPayload, UpdatedAt: now},
	}

	err = s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "strategy"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&rows).Error
	})
	return errors.Wrap(err, "upsert snapshot")
}

// Read loads both blobs for a strategy; absent rows mean no snapshot yet.
func (s *PostgresStore) Read(ctx context.Context, strategy string) (Snapshot, bool, error) {
	var rows []snapshotRow
	err := s.client.DB().WithContext(ctx).
		Where("strategy = ?", strategy).
		Find(&rows).Error
	if err != nil {
		return Snapshot{}, false, errors.Wrap(err, "query snapshot")
	}
	if len(rows) == 0 {
		return Snapshot{}, false, nil
	}

	snapshot := Snapshot{Strategy: strategy}
	for _, row := range rows {
		switch row.Kind {
		case kindTrades:
			var trades []model.ActiveTrade
			if err := json.Unmarshal(row.Payload, &trades); err != nil {
				return Snapshot{}, false, errors.Wrap(err, "decode trades blob")
			}
			snapshot.Trades = trades
		case kindPositions:
			var positions []PositionEntry
			if err := json.Unmarshal(row.Payload, &positions); err != nil {
				return Snapshot{}, false, errors.Wrap(err, "decode positions blob")
			}
			snapshot.Positions = positions
		}
		if row.UpdatedAt.After(snapshot.Timestamp) {
			snapshot.Timestamp = row.UpdatedAt
		}
	}
	return snapshot, true, nil
}
