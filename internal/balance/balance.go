package balance

import (
	"fmt"
	"math"
)

// Member identifies an active household member in a balance snapshot.
type Member struct {
	ID     uint
	Name   string
	Email  string
	Avatar string
}

// Share is one participant's portion of an expense.
type Share struct {
	UserID uint
	Amount float64
}

// Expense is the minimal expense view the balance computation needs:
// who paid, and who owes which share.
type Expense struct {
	ID       uint
	PaidByID uint
	Shares   []Share
}

// Settlement is a recorded real-world transfer between two members.
type Settlement struct {
	ID         uint
	FromUserID uint
	ToUserID   uint
	Amount     float64
}

// MemberBalance is a member's net position after all expenses and
// settlements. Positive means the group owes them money.
type MemberBalance struct {
	Member
	Balance float64
}

// Transfer is a suggested reimbursement produced by the simplifier.
// It is advisory output, not a ledger entry.
type Transfer struct {
	From   Member
	To     Member
	Amount float64
}

// Report is the derived balance model for one colocation. It is recomputed
// from a snapshot on every call and never persisted.
type Report struct {
	Members   []MemberBalance
	Pairwise  map[uint]map[uint]float64
	Suggested []Transfer
	Warnings  []string
}

// Compute derives net balances and suggested transfers from a snapshot of
// active members, expenses and settlements. It is a pure function: it
// allocates fresh working state per call and performs no I/O. Data-quality
// problems are reported through Report.Warnings, never as errors.
func Compute(members []Member, expenses []Expense, settlements []Settlement) Report {
	pairwise := make(map[uint]map[uint]float64)
	net := make(map[uint]float64)
	var warnings []string

	for _, m := range members {
		net[m.ID] = 0
	}

	accumulateExpenses(pairwise, net, expenses, &warnings)
	applySettlements(pairwise, net, settlements, &warnings)

	order := make([]uint, 0, len(members))
	for _, m := range members {
		order = append(order, m.ID)
	}
	suggested := simplify(order, net)

	return Report{
		Members:   memberBalances(members, net),
		Pairwise:  positivePairwise(members, pairwise),
		Suggested: decorate(suggested, members),
		Warnings:  warnings,
	}
}

// accumulateExpenses walks every expense share and builds the pairwise
// owed-matrix and per-member net balances. Shares belonging to the payer
// are skipped (their own part nets to zero), expenses without participants
// are no-ops, and shares referencing members who already left are still
// accumulated so totals stay correct.
func accumulateExpenses(pairwise map[uint]map[uint]float64, net map[uint]float64, expenses []Expense, warnings *[]string) {
	for _, exp := range expenses {
		if len(exp.Shares) == 0 {
			continue
		}
		for _, share := range exp.Shares {
			if share.UserID == exp.PaidByID {
				continue
			}
			if math.IsNaN(share.Amount) || math.IsInf(share.Amount, 0) {
				*warnings = append(*warnings, fmt.Sprintf("expense %d: share for member %d has a non-numeric amount, skipped", exp.ID, share.UserID))
				continue
			}
			if share.Amount < 0 {
				*warnings = append(*warnings, fmt.Sprintf("expense %d: share for member %d is negative (%.2f), skipped", exp.ID, share.UserID, share.Amount))
				continue
			}

			addPairwise(pairwise, share.UserID, exp.PaidByID, share.Amount)
			addPairwise(pairwise, exp.PaidByID, share.UserID, -share.Amount)
			net[exp.PaidByID] += share.Amount
			net[share.UserID] -= share.Amount
		}
	}
}

// applySettlements nets recorded reimbursements against the exact debts
// they repay, mirroring the accumulator's sign convention. Settlements are
// append-only facts: applying the same one twice nets it twice, and an
// overpayment is allowed to flip a pair's sign rather than being clamped.
// Balances are never blanket-zeroed just because settlements exist.
func applySettlements(pairwise map[uint]map[uint]float64, net map[uint]float64, settlements []Settlement, warnings *[]string) {
	for _, s := range settlements {
		if s.FromUserID == s.ToUserID {
			*warnings = append(*warnings, fmt.Sprintf("settlement %d: from and to are the same member, ignored", s.ID))
			continue
		}
		if math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) || s.Amount <= 0 {
			*warnings = append(*warnings, fmt.Sprintf("settlement %d: invalid amount, ignored", s.ID))
			continue
		}

		addPairwise(pairwise, s.FromUserID, s.ToUserID, -s.Amount)
		addPairwise(pairwise, s.ToUserID, s.FromUserID, s.Amount)
		net[s.FromUserID] += s.Amount
		net[s.ToUserID] -= s.Amount
	}
}

func addPairwise(pairwise map[uint]map[uint]float64, from, to uint, amount float64) {
	row, ok := pairwise[from]
	if !ok {
		row = make(map[uint]float64)
		pairwise[from] = row
	}
	row[to] += amount
}

func memberBalances(members []Member, net map[uint]float64) []MemberBalance {
	out := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		out = append(out, MemberBalance{Member: m, Balance: Round(net[m.ID])})
	}
	return out
}

// positivePairwise keeps only what each active member still owes to the
// others; the mirrored negative entries are redundant for display.
func positivePairwise(members []Member, pairwise map[uint]map[uint]float64) map[uint]map[uint]float64 {
	out := make(map[uint]map[uint]float64, len(members))
	for _, m := range members {
		out[m.ID] = make(map[uint]float64)
		for _, other := range members {
			if m.ID == other.ID {
				continue
			}
			owed := pairwise[m.ID][other.ID]
			if owed > 0 && !IsZero(owed) {
				out[m.ID][other.ID] = Round(owed)
			}
		}
	}
	return out
}

func decorate(transfers []rawTransfer, members []Member) []Transfer {
	byID := make(map[uint]Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	out := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, Transfer{
			From:   byID[t.From],
			To:     byID[t.To],
			Amount: t.Amount,
		})
	}
	return out
}
