package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// KV provides storage in PostgreSQL, one row per key.
type KV struct {
	bun *bun.DB
}

// Connect connects to the database, pings the DB to ensure the connection is
// working and creates the kv_entries table if needed.
func Connect(ctx context.Context, connStr string) (*KV, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	if _, err := db.NewCreateTable().Model((*entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &KV{
		bun: db,
	}, nil
}

// Close closes the database.
func (pg *KV) Close() error {
	return pg.bun.Close()
}

func (pg *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e entry
	err := pg.bun.NewSelect().Model(&e).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select: %w", err)
	}
	if e.Value == nil {
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (pg *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := pg.bun.NewInsert().
		Model(&entry{Key: key, Value: value}).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = now()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (pg *KV) Delete(ctx context.Context, key string) error {
	if _, err := pg.bun.NewDelete().Model((*entry)(nil)).Where("key = ?", key).Exec(ctx); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Update locks the row of key with SELECT ... FOR UPDATE for the duration of
// fn. A placeholder row is inserted first so a key that does not exist yet
// can be locked too.
func (pg *KV) Update(ctx context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error {
	return pg.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&entry{Key: key}).
			On("CONFLICT (key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert placeholder: %w", err)
		}

		var e entry
		if err := tx.NewSelect().Model(&e).Where("key = ?", key).For("UPDATE").Scan(ctx); err != nil {
			return fmt.Errorf("select for update: %w", err)
		}

		v, err := fn(e.Value, e.Value != nil)
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		_, err = tx.NewUpdate().
			Model(&e).
			Set("value = ?", v).
			Set("updated_at = now()").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		return nil
	})
}
