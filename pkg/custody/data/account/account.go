package account

import (
	"bytes"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Record is the persisted state of a single ledger account
type Record struct {
	Id uint64

	Address string
	Owner   string

	Lamports uint64
	Data     []byte

	// Version is incremented on every committed write. A zero version
	// denotes a record that has never been persisted.
	Version uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if err := validatePublicKey(r.Address); err != nil {
		return errors.Wrap(err, "invalid address")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	if err := validatePublicKey(r.Owner); err != nil {
		return errors.Wrap(err, "invalid owner")
	}

	if r.Lamports > maxLamports {
		return errors.New("lamports exceeds maximum")
	}

	return nil
}

func (r *Record) Clone() *Record {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)

	return &Record{
		Id: r.Id,

		Address: r.Address,
		Owner:   r.Owner,

		Lamports: r.Lamports,
		Data:     data,

		Version: r.Version,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Owner = r.Owner

	dst.Lamports = r.Lamports
	dst.Data = make([]byte, len(r.Data))
	copy(dst.Data, r.Data)

	dst.Version = r.Version

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}

// Equivalent compares the ledger-visible state of two records, ignoring
// bookkeeping fields.
func (r *Record) Equivalent(other *Record) bool {
	return r.Address == other.Address &&
		r.Owner == other.Owner &&
		r.Lamports == other.Lamports &&
		bytes.Equal(r.Data, other.Data)
}

// Lamports are stored in a signed 64 bit column
const maxLamports = 1<<63 - 1

func validatePublicKey(value string) error {
	decoded, err := base58.Decode(value)
	if err != nil {
		return err
	}

	if len(decoded) != 32 {
		return errors.Errorf("invalid length: %d", len(decoded))
	}

	return nil
}
