package price_feed

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

var (
	PriceUpdatePrefix = []byte("price_update")
)

type GetPriceUpdateAddressArgs struct {
	FeedId FeedId
}

func GetPriceUpdateAddress(args *GetPriceUpdateAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		PriceUpdatePrefix,
		args.FeedId[:],
	)
}
