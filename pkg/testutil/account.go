package testutil

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/solana/system"
)

func NewRandomKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

// FundAccount credits a system-owned wallet account with lamports, creating
// it if necessary.
func FundAccount(t *testing.T, store account.Store, key ed25519.PublicKey, lamports uint64) {
	ctx := context.Background()

	address := base58.Encode(key)

	existing, err := store.Get(ctx, address)
	if err == account.ErrAccountNotFound {
		require.NoError(t, store.Apply(ctx, &account.Change{
			Type: account.ChangeTypePut,
			Record: &account.Record{
				Address:  address,
				Owner:    base58.Encode(system.ProgramKey),
				Lamports: lamports,
			},
		}))
		return
	}
	require.NoError(t, err)

	expectedVersion := existing.Version
	existing.Lamports += lamports
	require.NoError(t, store.Apply(ctx, &account.Change{
		Type:            account.ChangeTypePut,
		Record:          existing,
		ExpectedVersion: expectedVersion,
	}))
}

// GetLamports returns the lamport balance of an account, or zero if it
// doesn't exist.
func GetLamports(t *testing.T, store account.Store, key ed25519.PublicKey) uint64 {
	record, err := store.Get(context.Background(), base58.Encode(key))
	if err == account.ErrAccountNotFound {
		return 0
	}
	require.NoError(t, err)
	return record.Lamports
}
