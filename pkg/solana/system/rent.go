package system

import "math"

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs
const (
	AccountStorageOverhead = 128

	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2
)

// RentExemptMinimum returns the minimum lamport balance an account of the
// given data size must hold to be exempt from rent.
func RentExemptMinimum(size int) uint64 {
	if size < 0 {
		size = 0
	}

	bytes := uint64(size) + AccountStorageOverhead
	if bytes > math.MaxUint64/(DefaultLamportsPerByteYear*DefaultExemptionThreshold) {
		return math.MaxUint64
	}
	return bytes * DefaultLamportsPerByteYear * DefaultExemptionThreshold
}
