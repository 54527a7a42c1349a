package account

import (
	"context"
	"errors"

	"github.com/code-payments/custody-server/pkg/database/query"
)

var (
	ErrAccountNotFound = errors.New("no records could be found")
	ErrStaleState      = errors.New("account state is stale")
	ErrInvalidChange   = errors.New("invalid change")
)

type ChangeType uint8

const (
	// ChangeTypeRead asserts the account is unchanged since it was read
	ChangeTypeRead ChangeType = iota
	// ChangeTypePut creates or updates the account
	ChangeTypePut
	// ChangeTypeDelete removes the account
	ChangeTypeDelete
)

// Change is a single account operation within an atomic change set.
//
// ExpectedVersion is the version observed when the account was read. A
// value of zero asserts that the account did not exist.
type Change struct {
	Type            ChangeType
	Record          *Record
	ExpectedVersion uint64
}

type Store interface {
	// Get gets an account by its address
	Get(ctx context.Context, address string) (*Record, error)

	// GetAllByOwner gets all accounts owned by the provided owner
	GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// Apply atomically commits a set of changes. Every change is validated
	// against its expected version before anything is written. On success,
	// records for put changes are updated with their new version. ErrStaleState
	// is returned if any account was modified since it was observed.
	Apply(ctx context.Context, changes ...*Change) error
}

// ValidateChanges performs store-independent checks over a change set.
func ValidateChanges(changes []*Change) error {
	seen := make(map[string]struct{})
	for _, change := range changes {
		if change == nil || change.Record == nil {
			return ErrInvalidChange
		}

		switch change.Type {
		case ChangeTypeRead, ChangeTypeDelete:
			if len(change.Record.Address) == 0 {
				return ErrInvalidChange
			}
		case ChangeTypePut:
			if err := change.Record.Validate(); err != nil {
				return err
			}
		default:
			return ErrInvalidChange
		}

		if change.Type == ChangeTypeDelete && change.ExpectedVersion == 0 {
			return ErrInvalidChange
		}

		if _, ok := seen[change.Record.Address]; ok {
			return ErrInvalidChange
		}
		seen[change.Record.Address] = struct{}{}
	}
	return nil
}
