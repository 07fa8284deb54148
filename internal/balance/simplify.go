package balance

import (
	"math"
	"sort"
)

type rawTransfer struct {
	From   uint
	To     uint
	Amount float64
}

type workingBalance struct {
	userID  uint
	balance float64
}

// simplify reduces a set of net balances to a short list of direct
// transfers using greedy matching: the biggest debtor pays the biggest
// creditor, repeatedly, until everything is within Epsilon of zero.
//
// The result is deterministic: entries are seeded in roster order and
// sorted with a stable sort, so members sharing an extreme balance are
// matched in the order they appear in the roster. The greedy pairing is
// not guaranteed minimum-cardinality across all debt topologies, but it
// emits at most n-1 transfers for n members and terminates in O(n) rounds.
func simplify(order []uint, net map[uint]float64) []rawTransfer {
	working := make([]*workingBalance, 0, len(order))
	for _, id := range order {
		if b := net[id]; !IsZero(b) {
			working = append(working, &workingBalance{userID: id, balance: b})
		}
	}

	sortByBalance(working)

	var transfers []rawTransfer
	// The cap guards against numeric edge cases that could otherwise
	// keep two near-zero entries alive forever.
	for iter := 0; iter < len(order); iter++ {
		if len(working) < 2 {
			break
		}

		debtor := working[0]
		creditor := working[len(working)-1]
		if IsZero(debtor.balance) {
			break
		}

		amount := Round(math.Min(-debtor.balance, creditor.balance))
		if amount > 0 {
			transfers = append(transfers, rawTransfer{
				From:   debtor.userID,
				To:     creditor.userID,
				Amount: amount,
			})
			debtor.balance += amount
			creditor.balance -= amount
		}

		if IsZero(working[0].balance) {
			working = working[1:]
		}
		if len(working) > 0 && IsZero(working[len(working)-1].balance) {
			working = working[:len(working)-1]
		}

		sortByBalance(working)
	}

	return transfers
}

func sortByBalance(working []*workingBalance) {
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].balance < working[j].balance
	})
}
