package tokens

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

// Adapter moves fungible tokens between holding accounts. It is the only
// component that reads or writes token program state.
type Adapter struct {
	log *logrus.Entry
}

func NewAdapter() *Adapter {
	return &Adapter{
		log: logrus.StandardLogger().WithField("type", "custody/tokens/adapter"),
	}
}

// InitializeMint creates a new mint with a fixed decimal precision
func (a *Adapter) InitializeMint(tx *ledger.Transaction, mint, mintAuthority, payer ed25519.PublicKey, decimals uint8) error {
	state := &token.Mint{
		MintAuthority: mintAuthority,
		Decimals:      decimals,
		IsInitialized: true,
	}
	return tx.Create(mint, token.ProgramKey, payer, state.Marshal())
}

// GetMint returns the state of a mint
func (a *Adapter) GetMint(tx *ledger.Transaction, mint ed25519.PublicKey) (*token.Mint, error) {
	acc, err := tx.Get(mint)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(acc.Owner, token.ProgramKey) {
		return nil, custody.ErrInvalidAccountData
	}

	var state token.Mint
	if !state.Unmarshal(acc.Data) || !state.IsInitialized {
		return nil, custody.ErrInvalidAccountData
	}
	return &state, nil
}

// MintTo issues new tokens into a holding account
func (a *Adapter) MintTo(tx *ledger.Transaction, mint, destination ed25519.PublicKey, amount uint64, authority Authority) error {
	mintState, err := a.GetMint(tx, mint)
	if err != nil {
		return err
	}

	if len(mintState.MintAuthority) == 0 {
		return custody.ErrUnauthorized
	}
	if err := authority.authorize(tx, mintState.MintAuthority); err != nil {
		return err
	}

	destinationState, err := a.GetHoldingAccount(tx, destination)
	if err != nil {
		return err
	}
	if !bytes.Equal(destinationState.Mint, mint) {
		return custody.ErrMintMismatch
	}

	if mintState.Supply > math.MaxUint64-amount || destinationState.Amount > math.MaxUint64-amount {
		return custody.ErrArithmeticOverflow
	}

	mintState.Supply += amount
	destinationState.Amount += amount

	if err := tx.SetData(mint, mintState.Marshal()); err != nil {
		return err
	}
	return tx.SetData(destination, destinationState.Marshal())
}

// CreateHoldingAccount creates the associated holding account for the owner
// and mint. The payer funds the account's rent.
func (a *Adapter) CreateHoldingAccount(tx *ledger.Transaction, owner, mint, payer ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	if _, err := a.GetMint(tx, mint); err != nil {
		return nil, 0, err
	}

	address, bump, err := token.GetAssociatedAccountAndBump(owner, mint)
	if err != nil {
		return nil, 0, custody.FromDerivationError(err)
	}

	state := &token.Account{
		Mint:  mint,
		Owner: owner,
		State: token.AccountStateInitialized,
	}
	if err := tx.Create(address, token.ProgramKey, payer, state.Marshal()); err != nil {
		return nil, 0, err
	}

	a.log.WithFields(logrus.Fields{
		"method":  "CreateHoldingAccount",
		"tx":      tx.Id(),
		"owner":   base58.Encode(owner),
		"mint":    base58.Encode(mint),
		"address": base58.Encode(address),
	}).Trace("created holding account")

	return address, bump, nil
}

// GetHoldingAccount returns the state of a holding account
func (a *Adapter) GetHoldingAccount(tx *ledger.Transaction, address ed25519.PublicKey) (*token.Account, error) {
	acc, err := tx.Get(address)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(acc.Owner, token.ProgramKey) {
		return nil, custody.ErrInvalidAccountData
	}

	var state token.Account
	if !state.Unmarshal(acc.Data) {
		return nil, custody.ErrInvalidAccountData
	}

	if state.State != token.AccountStateInitialized {
		return nil, custody.ErrInvalidAccountData
	}
	return &state, nil
}

// GetBalance returns the token balance of a holding account
func (a *Adapter) GetBalance(tx *ledger.Transaction, address ed25519.PublicKey) (uint64, error) {
	state, err := a.GetHoldingAccount(tx, address)
	if err != nil {
		return 0, err
	}
	return state.Amount, nil
}

// Transfer moves tokens between two holding accounts of the same mint
func (a *Adapter) Transfer(tx *ledger.Transaction, source, destination ed25519.PublicKey, amount uint64, authority Authority) error {
	if bytes.Equal(source, destination) {
		return custody.ErrAddressMismatch
	}

	sourceState, err := a.GetHoldingAccount(tx, source)
	if err != nil {
		return err
	}

	destinationState, err := a.GetHoldingAccount(tx, destination)
	if err != nil {
		return err
	}

	if !bytes.Equal(sourceState.Mint, destinationState.Mint) {
		return custody.ErrMintMismatch
	}

	if err := authority.authorize(tx, sourceState.Owner); err != nil {
		return err
	}

	if sourceState.Amount < amount {
		return custody.ErrInsufficientFunds
	}

	if destinationState.Amount > math.MaxUint64-amount {
		return custody.ErrArithmeticOverflow
	}

	sourceState.Amount -= amount
	destinationState.Amount += amount

	if err := tx.SetData(source, sourceState.Marshal()); err != nil {
		return err
	}
	if err := tx.SetData(destination, destinationState.Marshal()); err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"method":      "Transfer",
		"tx":          tx.Id(),
		"source":      base58.Encode(source),
		"destination": base58.Encode(destination),
		"amount":      amount,
	}).Trace("transferred tokens")

	return nil
}

// CloseHoldingAccount deletes an empty holding account and refunds its rent
// to the destination.
func (a *Adapter) CloseHoldingAccount(tx *ledger.Transaction, address, destination ed25519.PublicKey, authority Authority) error {
	state, err := a.GetHoldingAccount(tx, address)
	if err != nil {
		return err
	}

	if err := authority.authorize(tx, state.Owner); err != nil {
		return err
	}

	if state.Amount > 0 {
		return custody.ErrFundsRemaining
	}

	return tx.Close(address, destination)
}
