package token

import (
	"github.com/code-payments/custody-server/pkg/solana/binary"
)

var (
	// ProgramKey owns every holding account and mint record
	ProgramKey = binary.MustDecodeKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenAccountProgramKey derives the canonical holding account
	// for an owner and mint
	AssociatedTokenAccountProgramKey = binary.MustDecodeKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)
