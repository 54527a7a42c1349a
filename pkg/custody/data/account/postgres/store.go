package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/custody-server/pkg/custody/data/account"
	pgutil "github.com/code-payments/custody-server/pkg/database/postgres"
	"github.com/code-payments/custody-server/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed account.Store
func New(db *sql.DB) account.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements account.Store.Get
func (s *store) Get(ctx context.Context, address string) (*account.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByOwner implements account.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*account.Record, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*account.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// Apply implements account.Store.Apply
func (s *store) Apply(ctx context.Context, changes ...*account.Change) error {
	if err := account.ValidateChanges(changes); err != nil {
		return err
	}

	models := make([]*model, len(changes))
	for i, change := range changes {
		if change.Type != account.ChangeTypePut {
			continue
		}

		m, err := toModel(change.Record)
		if err != nil {
			return err
		}
		models[i] = m
	}

	err := pgutil.ExecuteInTx(ctx, s.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		for i, change := range changes {
			var err error
			switch change.Type {
			case account.ChangeTypeRead:
				err = dbCheckVersion(ctx, tx, change.Record.Address, change.ExpectedVersion)
			case account.ChangeTypePut:
				if change.ExpectedVersion == 0 {
					err = models[i].dbInsert(ctx, tx)
				} else {
					err = models[i].dbUpdate(ctx, tx, change.ExpectedVersion)
				}
			case account.ChangeTypeDelete:
				err = dbDelete(ctx, tx, change.Record.Address, change.ExpectedVersion)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pgutil.CheckSerializationFailure(err, account.ErrStaleState)
	}

	for i, change := range changes {
		if models[i] != nil {
			fromModel(models[i]).CopyTo(change.Record)
		}
	}
	return nil
}
