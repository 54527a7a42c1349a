package vesting_reserve

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

var (
	ErrInvalidAccountData = errors.New("unexpected account data")
	ErrInvalidReserveType = errors.New("invalid reserve type")
)

var (
	PROGRAM_ADDRESS = binary.MustDecodeKey("CPZu31rBT7cWhWbwath7ZgxFGCsJbYyDX3tD9jKs1c4h")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)
