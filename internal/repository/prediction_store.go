package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"skyline/internal/domain/models"
	"skyline/internal/domain/repository"
)

// ClickHousePredictionStore keeps win-probability history per game. One row
// per play; the key_play annotation is stored as a JSON blob since only a
// minority of points carry one.
type ClickHousePredictionStore struct {
	db    *sql.DB
	table string
}

// NewClickHousePredictionStore creates ClickHouse-backed prediction storage.
func NewClickHousePredictionStore(db *sql.DB, table string) repository.PredictionStore {
	return &ClickHousePredictionStore{db: db, table: table}
}

func (s *ClickHousePredictionStore) Store(ctx context.Context, gid string, points []models.WinProbabilityPoint) error {
	if len(points) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (gid, home_team, inning, play_seq, win_probability, key_play) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	for i, p := range points {
		seq := p.PlaySeq
		if seq == 0 {
			seq = i + 1
		}
		var keyPlay string
		if p.KeyPlay != nil {
			b, err := json.Marshal(p.KeyPlay)
			if err != nil {
				return fmt.Errorf("marshal key play: %w", err)
			}
			keyPlay = string(b)
		}
		if _, err := s.db.ExecContext(ctx, q, gid, p.HomeTeam, p.Inning, seq, p.WinProbability, keyPlay); err != nil {
			return err
		}
	}
	return nil
}

// ByGame returns the stored curve in play order. Every point is kept;
// innings with several plays yield several points.
func (s *ClickHousePredictionStore) ByGame(ctx context.Context, gid string) ([]models.WinProbabilityPoint, error) {
	q := fmt.Sprintf("SELECT home_team, inning, play_seq, win_probability, key_play FROM %s WHERE gid = ? ORDER BY play_seq", s.table)
	rows, err := s.db.QueryContext(ctx, q, gid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.WinProbabilityPoint
	for rows.Next() {
		var p models.WinProbabilityPoint
		var keyPlay string
		if err := rows.Scan(&p.HomeTeam, &p.Inning, &p.PlaySeq, &p.WinProbability, &keyPlay); err != nil {
			return nil, err
		}
		p.GID = gid
		if keyPlay != "" {
			var kp models.KeyPlay
			if err := json.Unmarshal([]byte(keyPlay), &kp); err == nil {
				p.KeyPlay = &kp
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *ClickHousePredictionStore) Close() error {
	return nil // pool is managed by pkg/clickhouse
}
