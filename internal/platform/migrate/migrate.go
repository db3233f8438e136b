package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Result 记录本次执行中新应用和已跳过的文件。
type Result struct {
	AppliedFiles []string
	SkippedFiles []string
}

// Up 按文件名顺序执行 fsys 里 dir 下的 *.sql，已执行过的（记录在 schema_migrations）跳过。
// 迁移文件一般随包 embed，避免运行时依赖工作目录。
func Up(ctx context.Context, db *pgxpool.Pool, fsys fs.FS, dir string) (*Result, error) {
	if _, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	names, err := SQLFiles(fsys, dir)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, name := range names {
		var applied bool
		if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, name).Scan(&applied); err != nil {
			return nil, fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			res.SkippedFiles = append(res.SkippedFiles, name)
			continue
		}
		if err := apply(ctx, db, fsys, dir, name); err != nil {
			return nil, err
		}
		res.AppliedFiles = append(res.AppliedFiles, name)
	}
	return res, nil
}

// SQLFiles 返回 dir 下按名称排序的 .sql 文件（不递归）。
func SQLFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func apply(ctx context.Context, db *pgxpool.Pool, fsys fs.FS, dir, name string) error {
	sqlBytes, err := fs.ReadFile(fsys, path.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit(ctx)
}
