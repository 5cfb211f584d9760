package clients

import (
	"context"
	"database/sql"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jimlawless/whereami"
	_ "modernc.org/sqlite"
)

// NewSQLiteDB открывает базу sqlite (pure-Go драйвер modernc) и настраивает pragma.
// Соединение одно: sqlite допускает одного писателя, а ":memory:" живёт в рамках соединения.
func NewSQLiteDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return db, nil
}
