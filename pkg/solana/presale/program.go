package presale_vault

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

var (
	ErrInvalidAccountData = errors.New("unexpected account data")
)

var (
	PROGRAM_ADDRESS = binary.MustDecodeKey("SAURbWr37gXUYK9a15ppcppys1ktnmyVDFkCCyC2ePn")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)
