package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"skyline/internal/domain/models"
	"skyline/internal/domain/repository"
)

// ClickHousePlayStore implements PlayStore on ClickHouse. Plays land in
// playsTable, game headers in gamesTable.
type ClickHousePlayStore struct {
	db         *sql.DB
	playsTable string
	gamesTable string
}

// NewClickHousePlayStore creates ClickHouse-backed play storage.
func NewClickHousePlayStore(db *sql.DB, playsTable, gamesTable string) repository.PlayStore {
	return &ClickHousePlayStore{db: db, playsTable: playsTable, gamesTable: gamesTable}
}

func (s *ClickHousePlayStore) Store(ctx context.Context, p *models.Play) error {
	q := fmt.Sprintf("INSERT INTO %s (gid, inning, top_bot, nump, event, batter, pitcher, bathand, pithand, outs_pre, outs_post, hr, rbi, k, er, hits, errors, gdp, br1_pre, br2_pre, br3_pre, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.playsTable)
	_, err := s.db.ExecContext(ctx, q, playArgs(p)...)
	return err
}

func (s *ClickHousePlayStore) StoreBatch(ctx context.Context, plays []*models.Play) error {
	if len(plays) == 0 {
		return nil
	}
	// Multi-row VALUES insert to cut round-trips. 2000 rows per chunk.
	const chunkSize = 2000
	for start := 0; start < len(plays); start += chunkSize {
		end := start + chunkSize
		if end > len(plays) {
			end = len(plays)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*22)
		for _, p := range plays[start:end] {
			if p == nil || p.GID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, playArgs(p)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (gid, inning, top_bot, nump, event, batter, pitcher, bathand, pithand, outs_pre, outs_post, hr, rbi, k, er, hits, errors, gdp, br1_pre, br2_pre, br3_pre, ts) VALUES %s", s.playsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func playArgs(p *models.Play) []interface{} {
	ts := p.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	return []interface{}{
		p.GID, p.Inning, p.TopBot, p.Nump, p.Event,
		p.Batter, p.Pitcher, p.BatHand, p.PitHand,
		p.Outs, p.OutsPost, p.HR, p.RBI, p.K, p.ER,
		p.Hits, p.Errors, p.GDP,
		boolToUint8(p.BR1Pre), boolToUint8(p.BR2Pre), boolToUint8(p.BR3Pre),
		time.Unix(ts, 0),
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// PlaysByGame returns all plays for a game in replay order.
func (s *ClickHousePlayStore) PlaysByGame(ctx context.Context, gid string) ([]*models.Play, error) {
	q := fmt.Sprintf("SELECT gid, inning, top_bot, nump, event, batter, pitcher, bathand, pithand, outs_pre, outs_post, hr, rbi, k, er, hits, errors, gdp, br1_pre, br2_pre, br3_pre FROM %s WHERE gid = ? ORDER BY inning, top_bot, nump", s.playsTable)
	rows, err := s.db.QueryContext(ctx, q, gid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plays []*models.Play
	for rows.Next() {
		var p models.Play
		var br1, br2, br3 uint8
		if err := rows.Scan(&p.GID, &p.Inning, &p.TopBot, &p.Nump, &p.Event,
			&p.Batter, &p.Pitcher, &p.BatHand, &p.PitHand,
			&p.Outs, &p.OutsPost, &p.HR, &p.RBI, &p.K, &p.ER,
			&p.Hits, &p.Errors, &p.GDP, &br1, &br2, &br3); err != nil {
			return nil, err
		}
		p.BR1Pre, p.BR2Pre, p.BR3Pre = br1 != 0, br2 != 0, br3 != 0
		plays = append(plays, &p)
	}
	return plays, rows.Err()
}

// RecentGames returns the latest games played on or before the given date.
func (s *ClickHousePlayStore) RecentGames(ctx context.Context, before time.Time, limit int) ([]*models.Game, error) {
	q := fmt.Sprintf("SELECT gid, hometeam, visteam, statsapi_game_pk, date FROM %s WHERE date <= ? ORDER BY date DESC LIMIT ?", s.gamesTable)
	rows, err := s.db.QueryContext(ctx, q, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.GID, &g.HomeTeam, &g.VisTeam, &g.StatsAPIGamePk, &g.Date); err != nil {
			return nil, err
		}
		games = append(games, &g)
	}
	return games, rows.Err()
}

func (s *ClickHousePlayStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHousePlayStore) Close() error {
	return nil // pool is managed by pkg/clickhouse
}
