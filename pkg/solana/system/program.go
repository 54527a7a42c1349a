package system

import (
	"crypto/ed25519"
)

// ProgramKey is the system program, which owns every plain wallet account.
//
// Current key: 11111111111111111111111111111111
var ProgramKey = ed25519.PublicKey(make([]byte, ed25519.PublicKeySize))
