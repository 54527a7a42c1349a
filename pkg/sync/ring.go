package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over the stripe indices [0, size)
type ring struct {
	points *treemap.Map

	// first caches the index at the lowest point, which is where keys hashing
	// past the last point wrap around to. treemap.Map.Min() is O(log n).
	first int
}

// newRing places replicas points on the ring for every stripe
func newRing(size, replicas uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)
	for i := 0; i < int(size); i++ {
		seed, _ := murmur3.Sum128([]byte(fmt.Sprintf("stripe%d", i)))
		for j := 0; j < int(replicas); j++ {
			points.Put(pointFor(seed, uint32(j)), i)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

func pointFor(seed uint64, replica uint32) int64 {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint64(buf, seed)
	binary.LittleEndian.PutUint32(buf[8:], replica)

	point, _ := murmur3.Sum128(buf)
	return int64(point)
}

// shard returns the stripe index owning the key
func (r *ring) shard(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, index := r.points.Ceiling(int64(hash)); index != nil {
		return index.(int)
	}
	return r.first
}
