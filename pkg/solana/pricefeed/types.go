package price_feed

import (
	"encoding/hex"
	"strings"
)

const FeedIdSize = 32

type DataVersion uint8

const (
	UnknownDataVersion DataVersion = iota
	DataVersion1
)

type FeedId [FeedIdSize]byte

// FeedIdFromHex parses a hex encoded feed id, with or without a 0x prefix
func FeedIdFromHex(value string) (FeedId, error) {
	var res FeedId

	decoded, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil || len(decoded) != FeedIdSize {
		return res, ErrInvalidFeedId
	}

	copy(res[:], decoded)
	return res, nil
}

func (id FeedId) String() string {
	return hex.EncodeToString(id[:])
}
