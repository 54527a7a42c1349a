package wrapper

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/config"
)

// NewPublicKeyConfig returns a config for a base58 encoded ed25519 public key
func NewPublicKeyConfig(override config.Config, defaultValue ed25519.PublicKey) config.PublicKey {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (ed25519.PublicKey, error) {
		var decoded []byte
		switch typed := raw.(type) {
		case ed25519.PublicKey:
			decoded = typed
		case []byte:
			return decodePublicKey(string(typed))
		case string:
			return decodePublicKey(typed)
		default:
			return nil, ErrUnsuportedConversion
		}
		return checkPublicKeyLength(decoded)
	})
}

func decodePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "config: invalid base58 public key")
	}
	return checkPublicKeyLength(decoded)
}

func checkPublicKeyLength(value []byte) (ed25519.PublicKey, error) {
	if len(value) != ed25519.PublicKeySize {
		return nil, errors.Errorf("config: invalid public key length %d", len(value))
	}
	return value, nil
}
