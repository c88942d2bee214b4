package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/workplay/officegame/internal/game"
	_ "modernc.org/sqlite"
)

// Archive stores every evaluated round report in a SQLite database. It is an
// append-only log for later review; sessions are never restored from it.
type Archive struct {
	db *sql.DB
}

// ArchivedReport is one stored round.
type ArchivedReport struct {
	ID            string
	Round         int
	ScenarioTitle string
	Model         string
	Winner        string
	Report        game.Report
	CreatedAt     time.Time
}

func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; rounds are archived sequentially anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	a := &Archive{db: db}
	if err := a.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS round_reports (
			id TEXT PRIMARY KEY,
			round INTEGER NOT NULL,
			scenario_title TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			winner TEXT NOT NULL DEFAULT '',
			report_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_round_reports_created ON round_reports(created_at)`,
	}
	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record stores r, replacing an earlier copy with the same ID.
func (a *Archive) Record(ctx context.Context, r game.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO round_reports (id, round, scenario_title, model, winner, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Round, r.Scenario.Title, r.Model, r.Winner, string(body), r.GeneratedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]ArchivedReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, round, scenario_title, model, winner, report_json, created_at
		FROM round_reports
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []ArchivedReport
	for rows.Next() {
		var ar ArchivedReport
		var body string
		var created int64
		if err := rows.Scan(&ar.ID, &ar.Round, &ar.ScenarioTitle, &ar.Model, &ar.Winner, &body, &created); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		ar.CreatedAt = time.UnixMilli(created).UTC()
		if err := json.Unmarshal([]byte(body), &ar.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", ar.ID, err)
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}
