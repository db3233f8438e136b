package history

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"yourls.local/internal/app/events"
	"yourls.local/internal/platform/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Record 一条历史记录
type Record struct {
	ID         int64
	Kind       events.Kind
	Keyword    string
	ShortURL   string
	URL        string
	Title      string
	OccurredAt time.Time
	RecordedAt time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Migrate 建表，可重复执行。
func (r *Repo) Migrate(ctx context.Context) error {
	res, err := migrate.Up(ctx, r.db, migrations, "migrations")
	if err != nil {
		return err
	}
	if len(res.AppliedFiles) > 0 {
		slog.Info("history migrations applied", "files", res.AppliedFiles)
	}
	return nil
}

// SaveBatch 在一个事务里写入一批事件。
func (r *Repo) SaveBatch(ctx context.Context, batch []events.LinkEvent) error {
	if len(batch) == 0 {
		return nil
	}
	dbctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.Begin(dbctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(context.Background())

	for _, e := range batch {
		at := e.At
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := tx.Exec(dbctx,
			`INSERT INTO link_history (kind,keyword,short_url,url,title,occurred_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			string(e.Kind), e.Keyword, e.ShortURL, e.URL, e.Title, at); err != nil {
			return fmt.Errorf("insert history %s: %w", e.Keyword, err)
		}
	}
	return tx.Commit(dbctx)
}

// List 按发生时间倒序返回最近 limit 条，keyword 非空时只看该 keyword。
func (r *Repo) List(ctx context.Context, keyword string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(dbctx, `
SELECT id, kind, keyword, short_url, url, title, occurred_at, recorded_at
FROM link_history
WHERE ($1 = '' OR keyword = $1)
ORDER BY occurred_at DESC, id DESC
LIMIT $2`, keyword, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var kind string
		if err := rows.Scan(&rec.ID, &kind, &rec.Keyword, &rec.ShortURL, &rec.URL, &rec.Title, &rec.OccurredAt, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.Kind = events.Kind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
