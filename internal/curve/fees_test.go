// internal/curve/fees_test.go
package curve

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	gross := big.NewInt(100_000)
	split := SplitFee(gross, 100, 5000)

	// 1% fee = 1000, split evenly between creator and treasury.
	assert.Equal(t, big.NewInt(99_000), split.Net)
	assert.Equal(t, big.NewInt(500), split.CreatorFee)
	assert.Equal(t, big.NewInt(500), split.TreasuryFee)
}

func TestSplitFee_TreasuryAbsorbsRemainder(t *testing.T) {
	// 1% of 10001 is 100 (floored); 33% of that is 33, treasury gets 67.
	split := SplitFee(big.NewInt(10_001), 100, 3300)

	assert.Equal(t, big.NewInt(33), split.CreatorFee)
	assert.Equal(t, big.NewInt(67), split.TreasuryFee)

	sum := new(big.Int).Add(split.Net, split.CreatorFee)
	sum.Add(sum, split.TreasuryFee)
	assert.Equal(t, big.NewInt(10_001), sum, "parts must reassemble the gross amount")
}

func TestSplitFee_ZeroFee(t *testing.T) {
	gross := big.NewInt(5_000)
	split := SplitFee(gross, 0, 5000)

	assert.Equal(t, gross, split.Net)
	assert.Equal(t, int64(0), split.CreatorFee.Int64())
	assert.Equal(t, int64(0), split.TreasuryFee.Int64())
}

func TestSplitFee_FullCreatorShare(t *testing.T) {
	split := SplitFee(big.NewInt(100_000), 250, 10_000)

	assert.Equal(t, big.NewInt(2_500), split.CreatorFee)
	assert.Equal(t, int64(0), split.TreasuryFee.Int64())
}

func TestSplitFee_SumInvariantAcrossInputs(t *testing.T) {
	for _, gross := range []int64{1, 7, 999, 10_000, 123_457, 99_999_999} {
		for _, feeBps := range []uint64{0, 1, 30, 100, 1000} {
			for _, share := range []uint64{0, 1, 3333, 5000, 9999, 10_000} {
				g := big.NewInt(gross)
				split := SplitFee(g, feeBps, share)
				sum := new(big.Int).Add(split.Net, split.CreatorFee)
				sum.Add(sum, split.TreasuryFee)
				assert.Equal(t, g, sum, "gross=%d fee=%d share=%d", gross, feeBps, share)
			}
		}
	}
}
