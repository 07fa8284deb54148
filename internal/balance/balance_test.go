package balance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Member{ID: 1, Name: "Alice", Email: "alice@example.com"}
	bob   = Member{ID: 2, Name: "Bob", Email: "bob@example.com"}
	carol = Member{ID: 3, Name: "Carol", Email: "carol@example.com"}
)

func roster() []Member { return []Member{alice, bob, carol} }

// equalSplit30 is one expense of 30 paid by Alice, split 10 each.
func equalSplit30() []Expense {
	return []Expense{{
		ID:       1,
		PaidByID: alice.ID,
		Shares: []Share{
			{UserID: alice.ID, Amount: 10},
			{UserID: bob.ID, Amount: 10},
			{UserID: carol.ID, Amount: 10},
		},
	}}
}

func netOf(r Report, id uint) float64 {
	for _, m := range r.Members {
		if m.ID == id {
			return m.Balance
		}
	}
	return 0
}

func TestEqualSplitNoSettlements(t *testing.T) {
	report := Compute(roster(), equalSplit30(), nil)

	assert.Equal(t, 20.0, netOf(report, alice.ID))
	assert.Equal(t, -10.0, netOf(report, bob.ID))
	assert.Equal(t, -10.0, netOf(report, carol.ID))

	require.Len(t, report.Suggested, 2)
	// Tie between Bob and Carol resolves in roster order: Bob pays first.
	assert.Equal(t, bob.ID, report.Suggested[0].From.ID)
	assert.Equal(t, alice.ID, report.Suggested[0].To.ID)
	assert.Equal(t, 10.0, report.Suggested[0].Amount)
	assert.Equal(t, carol.ID, report.Suggested[1].From.ID)
	assert.Equal(t, alice.ID, report.Suggested[1].To.ID)
	assert.Equal(t, 10.0, report.Suggested[1].Amount)

	assert.Empty(t, report.Warnings)
}

func TestSettlementFullyCoversDebt(t *testing.T) {
	settlements := []Settlement{{ID: 1, FromUserID: bob.ID, ToUserID: alice.ID, Amount: 10}}
	report := Compute(roster(), equalSplit30(), settlements)

	assert.Equal(t, 10.0, netOf(report, alice.ID))
	assert.Equal(t, 0.0, netOf(report, bob.ID))
	assert.Equal(t, -10.0, netOf(report, carol.ID))

	require.Len(t, report.Suggested, 1)
	assert.Equal(t, carol.ID, report.Suggested[0].From.ID)
	assert.Equal(t, alice.ID, report.Suggested[0].To.ID)
	assert.Equal(t, 10.0, report.Suggested[0].Amount)
}

func TestOverpaymentFlipsSignInsteadOfClamping(t *testing.T) {
	// Bob owes 10 but pays 15: he becomes a creditor for 5. The presence
	// of a settlement must never blanket-zero unrelated balances (Carol
	// still owes her 10).
	settlements := []Settlement{{ID: 1, FromUserID: bob.ID, ToUserID: alice.ID, Amount: 15}}
	report := Compute(roster(), equalSplit30(), settlements)

	assert.Equal(t, 5.0, netOf(report, alice.ID))
	assert.Equal(t, 5.0, netOf(report, bob.ID))
	assert.Equal(t, -10.0, netOf(report, carol.ID))
	assert.NotEmpty(t, report.Suggested, "unrelated debt must survive a settlement")
}

func TestDuplicateSettlementsNetTwice(t *testing.T) {
	// Settlements are append-only facts, not corrections: recording the
	// same transfer twice nets it twice.
	s := Settlement{ID: 1, FromUserID: bob.ID, ToUserID: alice.ID, Amount: 10}
	report := Compute(roster(), equalSplit30(), []Settlement{s, s})

	assert.Equal(t, 0.0, netOf(report, alice.ID))
	assert.Equal(t, 10.0, netOf(report, bob.ID))
	assert.Equal(t, -10.0, netOf(report, carol.ID))
}

func TestConservation(t *testing.T) {
	expenses := []Expense{
		{ID: 1, PaidByID: alice.ID, Shares: []Share{
			{UserID: alice.ID, Amount: 13.34}, {UserID: bob.ID, Amount: 13.33}, {UserID: carol.ID, Amount: 13.33},
		}},
		{ID: 2, PaidByID: bob.ID, Shares: []Share{
			{UserID: alice.ID, Amount: 7.5}, {UserID: carol.ID, Amount: 4.25},
		}},
		{ID: 3, PaidByID: carol.ID, Shares: []Share{
			{UserID: bob.ID, Amount: 21.07},
		}},
	}
	settlements := []Settlement{
		{ID: 1, FromUserID: bob.ID, ToUserID: alice.ID, Amount: 5},
		{ID: 2, FromUserID: alice.ID, ToUserID: carol.ID, Amount: 2.25},
	}

	report := Compute(roster(), expenses, settlements)

	sum := 0.0
	for _, m := range report.Members {
		sum += m.Balance
	}
	assert.True(t, IsZero(sum), "net balances must sum to zero, got %v", sum)

	// Applying every suggested transfer must bring everyone within epsilon.
	residual := make(map[uint]float64)
	for _, m := range report.Members {
		residual[m.ID] = m.Balance
	}
	for _, tr := range report.Suggested {
		residual[tr.From.ID] += tr.Amount
		residual[tr.To.ID] -= tr.Amount
	}
	for id, b := range residual {
		assert.True(t, IsZero(b), "member %d left with residual %v", id, b)
	}
}

func TestMalformedShareSkippedWithWarning(t *testing.T) {
	expenses := []Expense{{
		ID:       1,
		PaidByID: alice.ID,
		Shares: []Share{
			{UserID: bob.ID, Amount: math.NaN()},
			{UserID: carol.ID, Amount: 10},
		},
	}}

	report := Compute(roster(), expenses, nil)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "expense 1")

	// Conservation holds over the remaining valid rows.
	assert.Equal(t, 10.0, netOf(report, alice.ID))
	assert.Equal(t, 0.0, netOf(report, bob.ID))
	assert.Equal(t, -10.0, netOf(report, carol.ID))
}

func TestNegativeShareSkippedWithWarning(t *testing.T) {
	expenses := []Expense{{
		ID:       7,
		PaidByID: alice.ID,
		Shares:   []Share{{UserID: bob.ID, Amount: -5}},
	}}

	report := Compute(roster(), expenses, nil)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 0.0, netOf(report, alice.ID))
	assert.Equal(t, 0.0, netOf(report, bob.ID))
}

func TestSelfSettlementIsNoOp(t *testing.T) {
	settlements := []Settlement{{ID: 3, FromUserID: bob.ID, ToUserID: bob.ID, Amount: 10}}
	report := Compute(roster(), equalSplit30(), settlements)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, -10.0, netOf(report, bob.ID))
}

func TestExpenseWithoutParticipantsIsNoOp(t *testing.T) {
	expenses := []Expense{{ID: 1, PaidByID: alice.ID}}
	report := Compute(roster(), expenses, nil)

	for _, m := range report.Members {
		assert.Equal(t, 0.0, m.Balance)
	}
	assert.Empty(t, report.Suggested)
}

func TestPayerAsSoleParticipantIsNoOp(t *testing.T) {
	expenses := []Expense{{
		ID:       1,
		PaidByID: alice.ID,
		Shares:   []Share{{UserID: alice.ID, Amount: 30}},
	}}
	report := Compute(roster(), expenses, nil)

	assert.Equal(t, 0.0, netOf(report, alice.ID))
	assert.Empty(t, report.Suggested)
}

func TestDepartedMemberSharesStillAccumulate(t *testing.T) {
	// Member 99 left the colocation but participated in a past expense.
	// Their share still counts toward the payer's credit; only the active
	// roster is surfaced in the report.
	expenses := []Expense{{
		ID:       1,
		PaidByID: alice.ID,
		Shares: []Share{
			{UserID: bob.ID, Amount: 10},
			{UserID: 99, Amount: 10},
		},
	}}

	report := Compute(roster(), expenses, nil)

	assert.Equal(t, 20.0, netOf(report, alice.ID))
	assert.Len(t, report.Members, 3)
	for _, m := range report.Members {
		assert.NotEqual(t, uint(99), m.ID)
	}
}

func TestPairwiseKeepsOnlyPositiveDebts(t *testing.T) {
	report := Compute(roster(), equalSplit30(), nil)

	assert.Equal(t, 10.0, report.Pairwise[bob.ID][alice.ID])
	assert.Equal(t, 10.0, report.Pairwise[carol.ID][alice.ID])
	assert.Empty(t, report.Pairwise[alice.ID])
}

func TestEmptyAndDegenerateRosters(t *testing.T) {
	t.Run("no members", func(t *testing.T) {
		report := Compute(nil, nil, nil)
		assert.Empty(t, report.Members)
		assert.Empty(t, report.Suggested)
	})

	t.Run("single member", func(t *testing.T) {
		report := Compute([]Member{alice}, nil, nil)
		require.Len(t, report.Members, 1)
		assert.Equal(t, 0.0, report.Members[0].Balance)
		assert.Empty(t, report.Suggested)
	})
}
