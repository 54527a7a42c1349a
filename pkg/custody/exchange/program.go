package exchange

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/tokens"
	presale_vault "github.com/code-payments/custody-server/pkg/solana/presale"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

const (
	TokensDepositedEventName = "TokensDeposited"
	TokensWithdrawnEventName = "TokensWithdrawn"
	TokensPurchasedEventName = "TokensPurchased"
	PriceUpdatedEventName    = "VaultPriceUpdated"
	VaultClosedEventName     = "VaultClosed"
)

// Program is the vault exchange state machine. A vault holds a single mint
// and sells it for lamports at an authority-set price until it expires.
type Program struct {
	log      *logrus.Entry
	conf     *conf
	executor *ledger.Executor
	tokens   *tokens.Adapter
}

func New(executor *ledger.Executor, adapter *tokens.Adapter, configProvider ConfigProvider) *Program {
	return &Program{
		log:      logrus.StandardLogger().WithField("type", "custody/exchange"),
		conf:     configProvider(),
		executor: executor,
		tokens:   adapter,
	}
}

// GetVault returns the vault at the address with its status evaluated at the
// current time
func (p *Program) GetVault(ctx context.Context, address ed25519.PublicKey) (*presale_vault.VaultAccount, error) {
	var res *presale_vault.VaultAccount
	err := p.executor.View(ctx, func(tx *ledger.Transaction) error {
		vault, err := loadVault(tx, address)
		if err != nil {
			return err
		}

		vault.Status = getStatus(vault, tx.Now())
		res = vault
		return nil
	})
	return res, err
}

// GetVaultBalance returns the token balance held by the vault
func (p *Program) GetVaultBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	var res uint64
	err := p.executor.View(ctx, func(tx *ledger.Transaction) error {
		vault, err := loadVault(tx, address)
		if err != nil {
			return err
		}

		res, err = p.tokens.GetBalance(tx, vault.VaultTokenAccount)
		return err
	})
	return res, err
}

// loadVault decodes the vault at the address and verifies it lives at the
// address derived from its own seeds
func loadVault(tx *ledger.Transaction, address ed25519.PublicKey) (*presale_vault.VaultAccount, error) {
	acc, err := tx.Get(address)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(acc.Owner, presale_vault.PROGRAM_ID) {
		return nil, custody.ErrInvalidAccountData
	}

	var vault presale_vault.VaultAccount
	if err := vault.Unmarshal(acc.Data); err != nil {
		return nil, custody.ErrInvalidAccountData
	}

	err = auth.RequireProgramAddress(
		address,
		presale_vault.PROGRAM_ID,
		vault.Bump,
		presale_vault.GetVaultSeeds(vault.TokenMint, vault.Index)...,
	)
	if err != nil {
		return nil, err
	}

	return &vault, nil
}

// loadVaultWithHoldingAccount is loadVault that also checks the caller
// supplied the vault's own holding account
func loadVaultWithHoldingAccount(tx *ledger.Transaction, address, holdingAccount ed25519.PublicKey) (*presale_vault.VaultAccount, error) {
	vault, err := loadVault(tx, address)
	if err != nil {
		return nil, err
	}

	if err := auth.RequireAddress(holdingAccount, vault.VaultTokenAccount); err != nil {
		return nil, err
	}
	return vault, nil
}

func saveVault(tx *ledger.Transaction, address ed25519.PublicKey, vault *presale_vault.VaultAccount) error {
	vault.Status = getStatus(vault, tx.Now())
	return tx.SetData(address, vault.Marshal())
}

// requireAuthority fails unless the caller is the vault authority and signed
// the transition
func requireAuthority(tx *ledger.Transaction, vault *presale_vault.VaultAccount, caller ed25519.PublicKey) error {
	if !bytes.Equal(vault.Authority, caller) {
		return custody.ErrUnauthorized
	}
	return auth.Require(tx, caller)
}

// requireAuthorityHoldingAccount fails unless the account is the authority's
// associated holding account for the vault mint
func requireAuthorityHoldingAccount(vault *presale_vault.VaultAccount, holdingAccount ed25519.PublicKey) error {
	expected, err := token.GetAssociatedAccount(vault.Authority, vault.TokenMint)
	if err != nil {
		return custody.FromDerivationError(err)
	}
	return auth.RequireAddress(holdingAccount, expected)
}

// vaultAuthority is the capability that signs for the vault's holding account
func vaultAuthority(vault *presale_vault.VaultAccount) tokens.Authority {
	return tokens.ProgramAuthority(
		presale_vault.PROGRAM_ID,
		presale_vault.GetVaultSignerSeeds(vault.TokenMint, vault.Index, vault.Bump)...,
	)
}

func getStatus(vault *presale_vault.VaultAccount, now time.Time) presale_vault.VaultStatus {
	if isExpired(vault, now) {
		return presale_vault.VaultStatusExpired
	}
	return presale_vault.VaultStatusActive
}

func isExpired(vault *presale_vault.VaultAccount, now time.Time) bool {
	return unixSeconds(now) >= vault.Expiry
}

func unixSeconds(t time.Time) uint64 {
	if t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}

func addCounter(counter *uint64, amount uint64) error {
	if *counter > math.MaxUint64-amount {
		return custody.ErrArithmeticOverflow
	}
	*counter += amount
	return nil
}
