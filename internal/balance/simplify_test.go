package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyEmitsAtMostNMinusOneTransfers(t *testing.T) {
	tests := []struct {
		name  string
		order []uint
		net   map[uint]float64
	}{
		{
			name:  "two members",
			order: []uint{1, 2},
			net:   map[uint]float64{1: 25, 2: -25},
		},
		{
			name:  "chain of debts",
			order: []uint{1, 2, 3, 4},
			net:   map[uint]float64{1: 30, 2: -10, 3: -5, 4: -15},
		},
		{
			name:  "two creditors two debtors",
			order: []uint{1, 2, 3, 4},
			net:   map[uint]float64{1: 12.5, 2: 7.5, 3: -8, 4: -12},
		},
		{
			name:  "uneven thirds",
			order: []uint{1, 2, 3},
			net:   map[uint]float64{1: 6.67, 2: -3.33, 3: -3.34},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfers := simplify(tt.order, tt.net)
			assert.LessOrEqual(t, len(transfers), len(tt.order)-1)

			residual := make(map[uint]float64, len(tt.net))
			for id, b := range tt.net {
				residual[id] = b
			}
			for _, tr := range transfers {
				assert.NotEqual(t, tr.From, tr.To, "no self-loop transfers")
				assert.Greater(t, tr.Amount, 0.0)
				residual[tr.From] += tr.Amount
				residual[tr.To] -= tr.Amount
			}
			for id, b := range residual {
				assert.True(t, IsZero(b), "member %d residual %v", id, b)
			}
		})
	}
}

func TestSimplifyAllZeroBalances(t *testing.T) {
	transfers := simplify([]uint{1, 2, 3}, map[uint]float64{1: 0, 2: 0.004, 3: -0.004})
	assert.Empty(t, transfers, "sub-epsilon residue counts as settled")
}

func TestSimplifySingleMember(t *testing.T) {
	transfers := simplify([]uint{1}, map[uint]float64{1: 42})
	assert.Empty(t, transfers)
}

func TestSimplifyTieBreakIsRosterOrder(t *testing.T) {
	// Members 2 and 3 owe the same amount; the one earlier in the roster
	// must be matched first.
	transfers := simplify([]uint{1, 2, 3}, map[uint]float64{1: 20, 2: -10, 3: -10})

	require.Len(t, transfers, 2)
	assert.Equal(t, uint(2), transfers[0].From)
	assert.Equal(t, uint(3), transfers[1].From)

	// Reversing roster order reverses the pairing.
	reversed := simplify([]uint{1, 3, 2}, map[uint]float64{1: 20, 2: -10, 3: -10})
	require.Len(t, reversed, 2)
	assert.Equal(t, uint(3), reversed[0].From)
	assert.Equal(t, uint(2), reversed[1].From)
}

func TestSimplifyFloatingPointResidueTerminates(t *testing.T) {
	// Thirds of 10 never sum exactly; the loop must still terminate with
	// everything inside epsilon.
	third := 10.0 / 3.0
	net := map[uint]float64{1: 2 * third, 2: -third, 3: -third}

	transfers := simplify([]uint{1, 2, 3}, net)

	assert.LessOrEqual(t, len(transfers), 2)
	residual := map[uint]float64{1: 2 * third, 2: -third, 3: -third}
	for _, tr := range transfers {
		residual[tr.From] += tr.Amount
		residual[tr.To] -= tr.Amount
	}
	for id, b := range residual {
		assert.True(t, IsZero(b), "member %d residual %v", id, b)
	}
}

func TestSimplifyAmountsAreRounded(t *testing.T) {
	transfers := simplify([]uint{1, 2}, map[uint]float64{1: 10.005, 2: -10.005})
	require.Len(t, transfers, 1)
	assert.Equal(t, 10.01, transfers[0].Amount)
}
