// internal/types/slippage_test.go
package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinAmountOut(t *testing.T) {
	expected := big.NewInt(10_000)

	tests := []struct {
		name string
		cfg  SlippageConfig
		want *big.Int
	}{
		{
			name: "fixed minimum",
			cfg:  SlippageConfig{Type: SlippageFixed, Value: big.NewInt(9_500)},
			want: big.NewInt(9_500),
		},
		{
			name: "bps tolerance",
			cfg:  SlippageConfig{Type: SlippageBps, Value: big.NewInt(250)},
			want: big.NewInt(9_750),
		},
		{
			name: "full tolerance means no floor",
			cfg:  SlippageConfig{Type: SlippageBps, Value: big.NewInt(10_000)},
			want: new(big.Int),
		},
		{
			name: "none",
			cfg:  SlippageConfig{Type: SlippageNone},
			want: new(big.Int),
		},
		{
			name: "unknown type defaults to no floor",
			cfg:  SlippageConfig{Type: "???"},
			want: new(big.Int),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinAmountOut(expected, tt.cfg)
			assert.Equal(t, 0, tt.want.Cmp(got))
		})
	}
}

func TestApplyBps(t *testing.T) {
	assert.Equal(t, big.NewInt(100), ApplyBps(big.NewInt(10_000), 100))
	assert.Equal(t, big.NewInt(9_900), ApplyBps(big.NewInt(10_000), 9_900))
	// Rounds toward zero.
	assert.Equal(t, int64(0), ApplyBps(big.NewInt(99), 100).Int64())
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, big.NewInt(50), MulDiv(big.NewInt(100), big.NewInt(3), big.NewInt(6)))
	// Floors the quotient.
	assert.Equal(t, big.NewInt(33), MulDiv(big.NewInt(100), big.NewInt(1), big.NewInt(3)))
}

func TestCloneAndIsPositive(t *testing.T) {
	original := big.NewInt(7)
	copied := Clone(original)
	copied.Add(copied, big.NewInt(1))
	assert.Equal(t, int64(7), original.Int64())

	assert.Equal(t, int64(0), Clone(nil).Int64())
	assert.True(t, IsPositive(big.NewInt(1)))
	assert.False(t, IsPositive(big.NewInt(0)))
	assert.False(t, IsPositive(big.NewInt(-1)))
	assert.False(t, IsPositive(nil))
}
