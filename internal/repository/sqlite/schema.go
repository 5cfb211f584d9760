package sqlite

import (
	"context"
	"database/sql"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jimlawless/whereami"
)

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT PRIMARY KEY,
	seq        INTEGER NOT NULL UNIQUE,
	embedding  BLOB NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	price_cents    INTEGER NOT NULL DEFAULT 0,
	image_url      TEXT NOT NULL DEFAULT '',
	affiliate_link TEXT NOT NULL DEFAULT '',
	brand          TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	fabric         TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS products_source_idx ON products (source);
`

// EnsureSchema создаёт таблицы, если их нет. Для sqlite миграции не ведутся.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}
