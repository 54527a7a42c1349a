package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(64, pointsPerStripe)
	other := newRing(64, pointsPerStripe)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		index := r.shard(key)

		assert.True(t, index >= 0 && index < 64)
		assert.Equal(t, index, r.shard(key))
		assert.Equal(t, index, other.shard(key))
	}
}

func TestRing_Distribution(t *testing.T) {
	stripes := 5
	iterations := 200000
	marginOfError := 0.15
	expected := iterations / stripes

	r := newRing(uint(stripes), pointsPerStripe)

	hits := make(map[int]int)
	for i := 0; i < iterations; i++ {
		hits[r.shard([]byte(fmt.Sprintf("key%d", i)))]++
	}

	assert.Len(t, hits, stripes)
	for _, count := range hits {
		assert.True(t, math.Abs(float64(count-expected)) <= marginOfError*float64(expected))
	}
}
