package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"main/internal/errors"
	"main/internal/model"
)

const (
	tradesSuffix    = "_trades.json"
	positionsSuffix = "_positions.json"
)

// FileStore keeps two JSON blobs per strategy under one directory:
// <strategy>_trades.json and <strategy>_positions.json. Each write goes
// through a temp file and rename so a crash mid-write never corrupts the
// previous snapshot.
type FileStore struct {
	dir string
}

// NewFileStore creates the store and ensures the directory exists.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	return &FileStore{dir: dir}, nil
}

type tradesBlob struct {
	Strategy  string              `json:"strategy"`
	Timestamp time.Time           `json:"timestamp"`
	Trades    []model.ActiveTrade `json:"trades"`
}

type positionsBlob struct {
	Strategy  string          `json:"strategy"`
	Timestamp time.Time       `json:"timestamp"`
	Positions []PositionEntry `json:"positions"`
}

// Write persists both blobs. The snapshot is not considered durable until
// both renames complete.
func (s *FileStore) Write(_ context.Context, snapshot Snapshot) error {
	trades := tradesBlob{
		Strategy:  snapshot.Strategy,
		Timestamp: snapshot.Timestamp,
		Trades:    snapshot.Trades,
	}
	if err := s.writeBlob(snapshot.Strategy+tradesSuffix, trades); err != nil {
		return errors.Wrap(err, "write trades blob")
	}

	positions := positionsBlob{
		Strategy:  snapshot.Strategy,
		Timestamp: snapshot.Timestamp,
		Positions: snapshot.Positions,
	}
	if err := s.writeBlob(snapshot.Strategy+positionsSuffix, positions); err != nil {
		return errors.Wrap(err, "write positions blob")
	}
	return nil
}

// Read loads both blobs. A strategy with no snapshot on disk returns
// ok=false; a partially present or unreadable snapshot returns an error so
// the caller refuses to trade against state that contradicts reality.
func (s *FileStore) Read(_ context.Context, strategy string) (Snapshot, bool, error) {
	tradesData, tradesErr := os.ReadFile(filepath.Join(s.dir, strategy+tradesSuffix))
	positionsData, positionsErr := os.ReadFile(filepath.Join(s.dir, strategy+positionsSuffix))

	if os.IsNotExist(tradesErr) && os.IsNotExist(positionsErr) {
		return Snapshot{}, false, nil
	}
	if tradesErr != nil {
		return Snapshot{}, false, errors.Wrap(tradesErr, "read trades blob")
	}
	if positionsErr != nil {
		return Snapshot{}, false, errors.Wrap(positionsErr, "read positions blob")
	}

	var trades tradesBlob
	if err := json.Unmarshal(tradesData, &trades); err != nil {
		return Snapshot{}, false, errors.Wrap(err, "decode trades blob")
	}
	var positions positionsBlob
	if err := json.Unmarshal(positionsData, &positions); err != nil {
		return Snapshot{}, false, errors.Wrap(err, "decode positions blob")
	}

	return Snapshot{
		Strategy:  strategy,
		Timestamp: trades.Timestamp,
		Trades:    trades.Trades,
		Positions: positions.Positions,
	}, true, nil
}

func (s *FileStore) writeBlob(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
