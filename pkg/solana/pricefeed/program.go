package price_feed

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

var (
	ErrInvalidAccountData = errors.New("unexpected account data")
	ErrInvalidFeedId      = errors.New("invalid feed id")
)

var (
	PROGRAM_ADDRESS = binary.MustDecodeKey("rec5EKMGg6MxZYaMdyBfgwp4d5rB9T1VQH5pJv5LtFJ")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)
