package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/custody-server/pkg/custody/data/account"
	pgutil "github.com/code-payments/custody-server/pkg/database/postgres"
	q "github.com/code-payments/custody-server/pkg/database/query"
)

const (
	tableName = "custody__core_ledgeraccount"

	allColumns = "id, address, owner, lamports, data, version, created_at, last_updated_at"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Owner   string `db:"owner"`

	Lamports int64  `db:"lamports"`
	Data     []byte `db:"data"`

	Version int64 `db:"version"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *account.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address: obj.Address,
		Owner:   obj.Owner,

		Lamports: int64(obj.Lamports),
		Data:     data,

		Version: int64(obj.Version),

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *account.Record {
	return &account.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Owner:   obj.Owner,

		Lamports: uint64(obj.Lamports),
		Data:     obj.Data,

		Version: uint64(obj.Version),

		CreatedAt:     obj.CreatedAt.UTC(),
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
}

func (m *model) dbInsert(ctx context.Context, tx *sqlx.Tx) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.LastUpdatedAt = now

	query := `INSERT INTO ` + tableName + `
		(address, owner, lamports, data, version, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
		ON CONFLICT (address) DO NOTHING
		RETURNING ` + allColumns

	err := tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		m.CreatedAt,
		m.LastUpdatedAt,
	).StructScan(m)
	return pgutil.CheckNoRows(err, account.ErrStaleState)
}

func (m *model) dbUpdate(ctx context.Context, tx *sqlx.Tx, expectedVersion uint64) error {
	m.LastUpdatedAt = time.Now().UTC()

	query := `UPDATE ` + tableName + `
		SET owner = $2, lamports = $3, data = $4, version = version + 1, last_updated_at = $5
		WHERE address = $1 AND version = $6
		RETURNING ` + allColumns

	err := tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		m.LastUpdatedAt,
		int64(expectedVersion),
	).StructScan(m)
	return pgutil.CheckNoRows(err, account.ErrStaleState)
}

func dbDelete(ctx context.Context, tx *sqlx.Tx, address string, expectedVersion uint64) error {
	query := `DELETE FROM ` + tableName + `
		WHERE address = $1 AND version = $2`

	res, err := tx.ExecContext(ctx, query, address, int64(expectedVersion))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return account.ErrStaleState
	}
	return nil
}

func dbCheckVersion(ctx context.Context, tx *sqlx.Tx, address string, expectedVersion uint64) error {
	var version int64
	query := `SELECT version FROM ` + tableName + `
		WHERE address = $1
		FOR SHARE`

	err := tx.GetContext(ctx, &version, query, address)
	if pgutil.IsNoRows(err) {
		if expectedVersion == 0 {
			return nil
		}
		return account.ErrStaleState
	} else if err != nil {
		return err
	}

	if uint64(version) != expectedVersion {
		return account.ErrStaleState
	}
	return nil
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
	`
	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, account.ErrAccountNotFound)
	}
	return &res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE (owner = $1)
	`

	opts := []interface{}{owner}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, account.ErrAccountNotFound)
	}

	if len(res) == 0 {
		return nil, account.ErrAccountNotFound
	}
	return res, nil
}
