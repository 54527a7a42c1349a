package postgres

import (
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/custody/data/account/tests"

	postgrestest "github.com/code-payments/custody-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE custody__core_ledgeraccount(
			id SERIAL NOT NULL PRIMARY KEY,

			address TEXT NOT NULL,
			owner TEXT NOT NULL,

			lamports BIGINT NOT NULL CHECK (lamports >= 0),
			data BYTEA NOT NULL,

			version BIGINT NOT NULL,

			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT custody__core_ledgeraccount__uniq__address UNIQUE (address)
		);

		CREATE INDEX custody__core_ledgeraccount__idx__owner ON custody__core_ledgeraccount (owner);
	`

	tableReset = `TRUNCATE TABLE custody__core_ledgeraccount RESTART IDENTITY`
)

var (
	testStore account.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger().WithField("test", "account.postgres")

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("error creating docker pool")
		os.Exit(1)
	}

	db, purge, err := postgrestest.StartPostgresDB(pool, tableCreate)
	if err != nil {
		log.WithError(err).Error("error starting postgres")
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if _, err := db.Exec(tableReset); err != nil {
			log.WithError(err).Error("error resetting test table")
			purge()
			os.Exit(1)
		}
	}

	code := m.Run()
	db.Close()
	purge()
	os.Exit(code)
}

func TestAccountPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}
