package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/solana/system"
)

// Account is the transaction-local view of a ledger account
type Account struct {
	Address  ed25519.PublicKey
	Owner    ed25519.PublicKey
	Lamports uint64
	Data     []byte
}

func (a *Account) Clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)

	return &Account{
		Address:  dup(a.Address),
		Owner:    dup(a.Owner),
		Lamports: a.Lamports,
		Data:     data,
	}
}

type entry struct {
	// Version observed when first loaded. Zero if the account didn't exist.
	version uint64

	current *Account
	dirty   bool
}

// Transaction stages all reads and writes of a single transition. Nothing is
// visible to other transitions until the executor commits it.
type Transaction struct {
	ctx     context.Context
	id      string
	store   account.Store
	signers Signers
	now     time.Time

	entries map[string]*entry
	order   []string

	events []*Event
}

func newTransaction(ctx context.Context, id string, store account.Store, signers Signers, now time.Time) *Transaction {
	return &Transaction{
		ctx:     ctx,
		id:      id,
		store:   store,
		signers: signers,
		now:     now,
		entries: make(map[string]*entry),
	}
}

func (tx *Transaction) Context() context.Context {
	return tx.ctx
}

func (tx *Transaction) Id() string {
	return tx.id
}

// Now is the timestamp of the transition
func (tx *Transaction) Now() time.Time {
	return tx.now
}

func (tx *Transaction) Signers() Signers {
	return tx.signers
}

func (tx *Transaction) IsSigner(key ed25519.PublicKey) bool {
	return tx.signers.Contains(key)
}

// Exists returns whether an account is present at the address
func (tx *Transaction) Exists(address ed25519.PublicKey) (bool, error) {
	e, err := tx.load(address)
	if err != nil {
		return false, err
	}
	return e.current != nil, nil
}

// Get returns a copy of the account at the address. Modifications to the copy
// have no effect until passed to SetData or one of the lamport operations.
func (tx *Transaction) Get(address ed25519.PublicKey) (*Account, error) {
	e, err := tx.load(address)
	if err != nil {
		return nil, err
	}

	if e.current == nil {
		return nil, custody.ErrAccountNotInitialized
	}
	return e.current.Clone(), nil
}

// Create allocates a new account with the provided owner and initial data.
// The payer funds the rent-exempt minimum and must sign the transition.
func (tx *Transaction) Create(address, owner, payer ed25519.PublicKey, data []byte) error {
	e, err := tx.load(address)
	if err != nil {
		return err
	}

	if e.current != nil {
		return custody.ErrAlreadyInitialized
	}

	rent := system.RentExemptMinimum(len(data))
	if err := tx.debit(payer, rent); err != nil {
		return err
	}

	e.current = &Account{
		Address:  dup(address),
		Owner:    dup(owner),
		Lamports: rent,
		Data:     dup(data),
	}
	e.dirty = true

	return nil
}

// SetData overwrites the data of an existing account
func (tx *Transaction) SetData(address ed25519.PublicKey, data []byte) error {
	e, err := tx.load(address)
	if err != nil {
		return err
	}

	if e.current == nil {
		return custody.ErrAccountNotInitialized
	}

	e.current.Data = dup(data)
	e.dirty = true
	return nil
}

// Close deletes the account and refunds its lamports to the recipient
func (tx *Transaction) Close(address, recipient ed25519.PublicKey) error {
	e, err := tx.load(address)
	if err != nil {
		return err
	}

	if e.current == nil {
		return custody.ErrAccountNotInitialized
	}

	if bytes.Equal(address, recipient) {
		return errors.New("cannot close account into itself")
	}

	lamports := e.current.Lamports
	e.current = nil
	e.dirty = true

	return tx.credit(recipient, lamports)
}

// TransferLamports moves payment currency between accounts. The sender must
// sign the transition.
func (tx *Transaction) TransferLamports(from, to ed25519.PublicKey, amount uint64) error {
	if bytes.Equal(from, to) {
		if !tx.IsSigner(from) {
			return custody.ErrUnauthorized
		}
		return nil
	}

	if err := tx.debit(from, amount); err != nil {
		return err
	}
	return tx.credit(to, amount)
}

// Emit queues an event for publication once the transition commits
func (tx *Transaction) Emit(event *Event) {
	tx.events = append(tx.events, event)
}

func (tx *Transaction) debit(from ed25519.PublicKey, amount uint64) error {
	if !tx.IsSigner(from) {
		return custody.ErrUnauthorized
	}

	e, err := tx.load(from)
	if err != nil {
		return err
	}

	if e.current == nil || e.current.Lamports < amount {
		return custody.ErrInsufficientFunds
	}

	e.current.Lamports -= amount
	e.dirty = true
	return nil
}

func (tx *Transaction) credit(to ed25519.PublicKey, amount uint64) error {
	e, err := tx.load(to)
	if err != nil {
		return err
	}

	if e.current == nil {
		e.current = &Account{
			Address: dup(to),
			Owner:   dup(system.ProgramKey),
			Data:    []byte{},
		}
	}

	if e.current.Lamports > math.MaxUint64-amount {
		return custody.ErrArithmeticOverflow
	}

	e.current.Lamports += amount
	e.dirty = true
	return nil
}

func (tx *Transaction) load(address ed25519.PublicKey) (*entry, error) {
	if len(address) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address length: %d", len(address))
	}

	key := base58.Encode(address)
	if e, ok := tx.entries[key]; ok {
		return e, nil
	}

	e := &entry{}

	record, err := tx.store.Get(tx.ctx, key)
	switch err {
	case nil:
		current, err := fromRecord(record)
		if err != nil {
			return nil, err
		}

		e.version = record.Version
		e.current = current
	case account.ErrAccountNotFound:
	default:
		return nil, errors.Wrapf(err, "error loading account %s", key)
	}

	tx.entries[key] = e
	tx.order = append(tx.order, key)
	return e, nil
}

// changes returns the change set that commits this transaction. Every loaded
// account is included so that reads are validated as well as writes.
func (tx *Transaction) changes() []*account.Change {
	var res []*account.Change
	for _, key := range tx.order {
		e := tx.entries[key]

		switch {
		case !e.dirty:
			res = append(res, &account.Change{
				Type:            account.ChangeTypeRead,
				Record:          &account.Record{Address: key},
				ExpectedVersion: e.version,
			})
		case e.current == nil && e.version == 0:
			// Created and closed within the same transition
			res = append(res, &account.Change{
				Type:   account.ChangeTypeRead,
				Record: &account.Record{Address: key},
			})
		case e.current == nil:
			res = append(res, &account.Change{
				Type:            account.ChangeTypeDelete,
				Record:          &account.Record{Address: key},
				ExpectedVersion: e.version,
			})
		default:
			res = append(res, &account.Change{
				Type:            account.ChangeTypePut,
				Record:          toRecord(e.current),
				ExpectedVersion: e.version,
			})
		}
	}
	return res
}

func fromRecord(record *account.Record) (*Account, error) {
	address, err := base58.Decode(record.Address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid address")
	}

	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner")
	}

	return &Account{
		Address:  address,
		Owner:    owner,
		Lamports: record.Lamports,
		Data:     record.Data,
	}, nil
}

func toRecord(a *Account) *account.Record {
	return &account.Record{
		Address:  base58.Encode(a.Address),
		Owner:    base58.Encode(a.Owner),
		Lamports: a.Lamports,
		Data:     dup(a.Data),
	}
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
