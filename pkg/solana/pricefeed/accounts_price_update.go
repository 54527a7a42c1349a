package price_feed

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const (
	PriceUpdateAccountSize = (8 + // discriminator
		1 + // data_version
		32 + // authority
		FeedIdSize + // feed_id
		8 + // price
		8 + // confidence
		4 + // exponent
		8 + // publish_time
		1 + // bump
		2) // padding
)

var PriceUpdateAccountDiscriminator = []byte{34, 241, 35, 99, 157, 126, 244, 205}

// PriceUpdateAccount holds the latest published price for a feed. The price
// in quote units is Price * 10^Exponent.
type PriceUpdateAccount struct {
	DataVersion DataVersion

	Authority ed25519.PublicKey
	FeedId    FeedId

	Price       uint64
	Confidence  uint64
	Exponent    int32
	PublishTime uint64

	Bump uint8
}

// Float returns an approximate decimal value of the price, for display only
func (obj *PriceUpdateAccount) Float() float64 {
	value := new(big.Float).SetUint64(obj.Price)

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(obj.Exponent))), nil))
	if obj.Exponent < 0 {
		value.Quo(value, scale)
	} else {
		value.Mul(value, scale)
	}

	res, _ := value.Float64()
	return res
}

func (obj *PriceUpdateAccount) Marshal() []byte {
	data := make([]byte, PriceUpdateAccountSize)

	var offset int

	binary.PutDiscriminator(data[offset:], PriceUpdateAccountDiscriminator, &offset)
	binary.PutUint8(data[offset:], uint8(obj.DataVersion), &offset)

	binary.PutKey32(data[offset:], obj.Authority, &offset)
	binary.PutKey32(data[offset:], obj.FeedId[:], &offset)

	binary.PutUint64(data[offset:], obj.Price, &offset)
	binary.PutUint64(data[offset:], obj.Confidence, &offset)
	binary.PutInt32(data[offset:], obj.Exponent, &offset)
	binary.PutUint64(data[offset:], obj.PublishTime, &offset)

	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *PriceUpdateAccount) Unmarshal(data []byte) error {
	if len(data) < PriceUpdateAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	binary.GetDiscriminator(data[offset:], &discriminator, &offset)
	if !bytes.Equal(discriminator, PriceUpdateAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	var version uint8
	binary.GetUint8(data[offset:], &version, &offset)
	obj.DataVersion = DataVersion(version)
	if obj.DataVersion != DataVersion1 {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data[offset:], &obj.Authority, &offset)

	var feedId ed25519.PublicKey
	binary.GetKey32(data[offset:], &feedId, &offset)
	copy(obj.FeedId[:], feedId)

	binary.GetUint64(data[offset:], &obj.Price, &offset)
	binary.GetUint64(data[offset:], &obj.Confidence, &offset)
	binary.GetInt32(data[offset:], &obj.Exponent, &offset)
	binary.GetUint64(data[offset:], &obj.PublishTime, &offset)

	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *PriceUpdateAccount) String() string {
	return fmt.Sprintf(
		"PriceUpdateAccount{data_version=%d,authority=%s,feed_id=%s,price=%d,confidence=%d,exponent=%d,publish_time=%d,bump=%d}",
		obj.DataVersion,
		base58.Encode(obj.Authority),
		obj.FeedId.String(),
		obj.Price,
		obj.Confidence,
		obj.Exponent,
		obj.PublishTime,
		obj.Bump,
	)
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
