package tests

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/database/query"
)

func RunTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testHappyPath,
		testStaleState,
		testAtomicity,
		testReadAssertions,
		testGetAllByOwner,
		testInvalidChanges,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s account.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		start := time.Now().Add(-time.Second)

		expected := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 2039280,
			Data:     []byte{1, 2, 3},
		}
		cloned := expected.Clone()

		_, err := s.Get(ctx, expected.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		require.NoError(t, s.Apply(ctx, &account.Change{
			Type:   account.ChangeTypePut,
			Record: expected,
		}))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 1, expected.Version)
		assert.True(t, expected.CreatedAt.After(start))
		assert.True(t, cloned.Equivalent(expected))

		actual, err := s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assert.True(t, cloned.Equivalent(actual))
		assert.EqualValues(t, 1, actual.Version)

		actual.Lamports = 1
		actual.Data = []byte{4, 5}
		cloned = actual.Clone()
		require.NoError(t, s.Apply(ctx, &account.Change{
			Type:            account.ChangeTypePut,
			Record:          actual,
			ExpectedVersion: 1,
		}))
		assert.EqualValues(t, 2, actual.Version)

		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assert.True(t, cloned.Equivalent(actual))
		assert.EqualValues(t, 2, actual.Version)

		require.NoError(t, s.Apply(ctx, &account.Change{
			Type:            account.ChangeTypeDelete,
			Record:          actual,
			ExpectedVersion: 2,
		}))

		_, err = s.Get(ctx, expected.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)
	})
}

func testStaleState(t *testing.T, s account.Store) {
	t.Run("testStaleState", func(t *testing.T) {
		ctx := context.Background()

		record := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 10,
		}
		require.NoError(t, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: record.Clone()}))

		// Creating an account that already exists
		assert.Equal(t, account.ErrStaleState, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: record.Clone()}))

		// Updating with an outdated version
		updated := record.Clone()
		updated.Lamports = 20
		require.NoError(t, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: updated, ExpectedVersion: 1}))

		outdated := record.Clone()
		outdated.Lamports = 30
		assert.Equal(t, account.ErrStaleState, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: outdated, ExpectedVersion: 1}))

		// Deleting with an outdated version
		assert.Equal(t, account.ErrStaleState, s.Apply(ctx, &account.Change{Type: account.ChangeTypeDelete, Record: record.Clone(), ExpectedVersion: 1}))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 20, actual.Lamports)
		assert.EqualValues(t, 2, actual.Version)

		// Updating an account that doesn't exist
		missing := &account.Record{
			Address: newKey(t),
			Owner:   newKey(t),
		}
		assert.Equal(t, account.ErrStaleState, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: missing, ExpectedVersion: 1}))
	})
}

func testAtomicity(t *testing.T, s account.Store) {
	t.Run("testAtomicity", func(t *testing.T) {
		ctx := context.Background()

		existing := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 100,
		}
		require.NoError(t, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: existing}))

		created := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 50,
		}

		debited := existing.Clone()
		debited.Lamports = 50

		// The second change is stale, so the first must not be committed
		err := s.Apply(
			ctx,
			&account.Change{Type: account.ChangeTypePut, Record: created},
			&account.Change{Type: account.ChangeTypePut, Record: debited, ExpectedVersion: 5},
		)
		assert.Equal(t, account.ErrStaleState, err)

		_, err = s.Get(ctx, created.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.Lamports)
		assert.EqualValues(t, 1, actual.Version)

		require.NoError(t, s.Apply(
			ctx,
			&account.Change{Type: account.ChangeTypePut, Record: created},
			&account.Change{Type: account.ChangeTypePut, Record: debited, ExpectedVersion: 1},
		))

		actual, err = s.Get(ctx, created.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 50, actual.Lamports)

		actual, err = s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 50, actual.Lamports)
		assert.EqualValues(t, 2, actual.Version)
	})
}

func testReadAssertions(t *testing.T, s account.Store) {
	t.Run("testReadAssertions", func(t *testing.T) {
		ctx := context.Background()

		observed := &account.Record{
			Address: newKey(t),
			Owner:   newKey(t),
		}
		require.NoError(t, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: observed}))

		written := &account.Record{
			Address: newKey(t),
			Owner:   newKey(t),
		}

		assert.Equal(t, account.ErrStaleState, s.Apply(
			ctx,
			&account.Change{Type: account.ChangeTypeRead, Record: observed, ExpectedVersion: 2},
			&account.Change{Type: account.ChangeTypePut, Record: written},
		))

		// Asserting absence of an account that exists
		assert.Equal(t, account.ErrStaleState, s.Apply(
			ctx,
			&account.Change{Type: account.ChangeTypeRead, Record: &account.Record{Address: observed.Address}},
			&account.Change{Type: account.ChangeTypePut, Record: written},
		))

		_, err := s.Get(ctx, written.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		require.NoError(t, s.Apply(
			ctx,
			&account.Change{Type: account.ChangeTypeRead, Record: observed, ExpectedVersion: 1},
			&account.Change{Type: account.ChangeTypeRead, Record: &account.Record{Address: newKey(t)}},
			&account.Change{Type: account.ChangeTypePut, Record: written},
		))

		_, err = s.Get(ctx, written.Address)
		assert.NoError(t, err)
	})
}

func testGetAllByOwner(t *testing.T, s account.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		owner := newKey(t)

		_, err := s.GetAllByOwner(ctx, owner, query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, account.ErrAccountNotFound, err)

		var expected []*account.Record
		for i := 0; i < 5; i++ {
			record := &account.Record{
				Address:  newKey(t),
				Owner:    owner,
				Lamports: uint64(i),
			}
			require.NoError(t, s.Apply(ctx, &account.Change{Type: account.ChangeTypePut, Record: record}))
			expected = append(expected, record)
		}
		require.NoError(t, s.Apply(ctx, &account.Change{
			Type: account.ChangeTypePut,
			Record: &account.Record{
				Address: newKey(t),
				Owner:   newKey(t),
			},
		}))

		actual, err := s.GetAllByOwner(ctx, owner, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		for i, record := range actual {
			assert.Equal(t, expected[i].Address, record.Address)
		}

		actual, err = s.GetAllByOwner(ctx, owner, query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		for i, record := range actual {
			assert.Equal(t, expected[4-i].Address, record.Address)
		}

		actual, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[1].Id), 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, expected[2].Address, actual[0].Address)
		assert.Equal(t, expected[3].Address, actual[1].Address)

		actual, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[3].Id), 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, expected[2].Address, actual[0].Address)

		_, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[4].Id), 10, query.Ascending)
		assert.Equal(t, account.ErrAccountNotFound, err)
	})
}

func testInvalidChanges(t *testing.T, s account.Store) {
	t.Run("testInvalidChanges", func(t *testing.T) {
		ctx := context.Background()

		record := &account.Record{
			Address: newKey(t),
			Owner:   newKey(t),
		}

		assert.Equal(t, account.ErrInvalidChange, s.Apply(ctx, nil))
		assert.Equal(t, account.ErrInvalidChange, s.Apply(
			ctx,
			&account.Change{Type: account.ChangeTypePut, Record: record},
			&account.Change{Type: account.ChangeTypeRead, Record: record},
		))
		assert.Equal(t, account.ErrInvalidChange, s.Apply(ctx, &account.Change{Type: account.ChangeTypeDelete, Record: record}))

		assert.Error(t, s.Apply(ctx, &account.Change{
			Type:   account.ChangeTypePut,
			Record: &account.Record{Address: "invalid", Owner: record.Owner},
		}))

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)
	})
}

func newKey(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}
