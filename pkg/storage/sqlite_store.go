package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/small-frappuccino/memebot/pkg/util"
)

const dayLayout = "2006-01-02"

// Store wraps an embedded SQLite database holding a daily tally of how often
// each template was used. Meme content is never stored.
// It uses modernc.org/sqlite for CGO-less builds.
type Store struct {
	dbPath string
	db     *sql.DB
	now    func() time.Time
}

// NewStore creates a new Store pointing to dbPath. Call Init() before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath, now: time.Now}
}

// Init opens the SQLite database, configures pragmas, and ensures the schema exists.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := util.EnsureParentDir(s.dbPath); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas are per connection; one connection keeps them all applied.
	db.SetMaxOpenConns(1)

	pragmas := []struct{ stmt, what string }{
		{`PRAGMA journal_mode=WAL;`, "set WAL"},
		{`PRAGMA busy_timeout=5000;`, "set busy_timeout"},
		{`PRAGMA synchronous=NORMAL;`, "set synchronous"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("%s: %w", p.what, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// TemplateUsage is the number of memes created from one template.
type TemplateUsage struct {
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	Uses         int64  `json:"uses"`
}

// RecordTemplateUsage adds one use of the template to today's tally.
func (s *Store) RecordTemplateUsage(ctx context.Context, templateID, templateName string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if strings.TrimSpace(templateID) == "" {
		return fmt.Errorf("template id is empty")
	}
	day := s.now().UTC().Format(dayLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO template_usage (day, template_id, template_name, uses)
         VALUES (?, ?, ?, 1)
         ON CONFLICT(day, template_id) DO UPDATE SET
           uses = uses + 1,
           template_name = excluded.template_name`,
		day, templateID, templateName,
	)
	return err
}

// TopTemplates returns the most used templates over the last days days
// (today included), highest first. days <= 0 means all time.
func (s *Store) TopTemplates(ctx context.Context, days, limit int) ([]TemplateUsage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	since := ""
	if days > 0 {
		since = s.now().UTC().AddDate(0, 0, -(days - 1)).Format(dayLayout)
	}

	// Name comes from the most recent day the template was seen.
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.template_id,
                (SELECT n.template_name FROM template_usage n
                  WHERE n.template_id = t.template_id ORDER BY n.day DESC LIMIT 1),
                SUM(t.uses) AS total
           FROM template_usage t
          WHERE t.day >= ?
          GROUP BY t.template_id
          ORDER BY total DESC, t.template_id ASC
          LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TemplateUsage
	for rows.Next() {
		var u TemplateUsage
		if err := rows.Scan(&u.TemplateID, &u.TemplateName, &u.Uses); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// PruneUsageBefore deletes tally rows older than cutoff and returns how many
// rows were removed.
func (s *Store) PruneUsageBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM template_usage WHERE day < ?`, cutoff.UTC().Format(dayLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func ensureSchema(db *sql.DB) error {
	const createTemplateUsage = `
CREATE TABLE IF NOT EXISTS template_usage (
  day           TEXT NOT NULL,
  template_id   TEXT NOT NULL,
  template_name TEXT NOT NULL DEFAULT '',
  uses          INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (day, template_id)
);
CREATE INDEX IF NOT EXISTS idx_template_usage_template ON template_usage(template_id);`

	if _, err := db.Exec(createTemplateUsage); err != nil {
		return fmt.Errorf("create template_usage: %w", err)
	}
	return nil
}
