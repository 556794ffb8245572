package frame

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Split partitions the indices 0..n-1 into a train and a test set. The test
// set holds ceil(testSize*n) indices. The same seed always yields the same
// partition.
func Split(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test_size must be in (0, 1), got %g", testSize)
	}
	// The epsilon keeps 0.3*10 from rounding up to 4.
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test_size %g into two non-empty sets", n, testSize)
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
