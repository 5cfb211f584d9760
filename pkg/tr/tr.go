package tr

import (
	"context"
	"database/sql"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jackc/pgx/v5"
)

type txKey struct{}

// Manager выполняет функцию в рамках одной транзакции хранилища.
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx кладёт транзакцию pgx в контекст
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// PgxManager открывает транзакции через go-transaction-manager поверх пула pgx.
type PgxManager struct {
	db transaction.Transactional
}

func NewPgxManager(db transaction.Transactional) *PgxManager {
	return &PgxManager{db: db}
}

// Do открывает транзакцию, выполняет fn и делает Commit. При ошибке fn транзакция откатывается.
func (m *PgxManager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "PgxManager.Do"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.db)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(op, e.ErrTransactionNotFound)
	}

	if err = fn(WithTx(ctx, pgxTx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// NopManager просто вызывает fn. Используется хранилищами без транзакций pgx (sqlite).
type NopManager struct{}

func (NopManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sqlTxKey struct{}

// SQLTxFromCtx извлекает *sql.Tx, положенную SQLManager.
func SQLTxFromCtx(ctx context.Context) (*sql.Tx, error) {
	tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// SQLManager открывает транзакции database/sql (используется с sqlite).
type SQLManager struct {
	db *sql.DB
}

func NewSQLManager(db *sql.DB) *SQLManager {
	return &SQLManager{db: db}
}

func (m *SQLManager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "SQLManager.Do"

	// вложенный вызов переиспользует внешнюю транзакцию
	if _, err := SQLTxFromCtx(ctx); err == nil {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, sqlTxKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
