package handlers

import (
	"encoding/json"
	"fmt"

	"collocshare/internal/balance"
)

// Amount is a monetary JSON value that tolerates clients sending numbers
// as strings ("12.50"). Coercion failures surface as a 400 at binding
// time instead of propagating bad data into the books.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f, err := balance.CoerceAmount(raw)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// MemberDTO is the public view of a colocation member
type MemberDTO struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// MemberBalanceDTO is a member plus their net balance
type MemberBalanceDTO struct {
	MemberDTO
	Balance float64 `json:"balance"`
}

// TransferDTO is a suggested reimbursement with full member display data
type TransferDTO struct {
	FromUser MemberDTO `json:"fromUser"`
	ToUser   MemberDTO `json:"toUser"`
	Amount   float64   `json:"amount"`
}

// BalanceReportDTO is the canonical serialization of a balance report
type BalanceReportDTO struct {
	Members              []MemberBalanceDTO        `json:"members"`
	Balances             map[uint]map[uint]float64 `json:"balances"`
	OptimizedSettlements []TransferDTO             `json:"optimizedSettlements"`
	Warnings             []string                  `json:"warnings,omitempty"`
}

// LegacyUserBalanceDTO mirrors the field names the original balance page
// still expects
type LegacyUserBalanceDTO struct {
	UserID    uint    `json:"userId"`
	UserName  string  `json:"userName"`
	UserEmail string  `json:"userEmail"`
	UserImage string  `json:"userImage,omitempty"`
	Balance   float64 `json:"balance"`
}

// LegacyDebtDTO mirrors the legacy debt shape
type LegacyDebtDTO struct {
	FromUserID    uint    `json:"fromUserId"`
	FromUserName  string  `json:"fromUserName"`
	FromUserEmail string  `json:"fromUserEmail"`
	FromUserImage string  `json:"fromUserImage,omitempty"`
	ToUserID      uint    `json:"toUserId"`
	ToUserName    string  `json:"toUserName"`
	ToUserEmail   string  `json:"toUserEmail"`
	ToUserImage   string  `json:"toUserImage,omitempty"`
	Amount        float64 `json:"amount"`
}

// LegacyBalanceReportDTO is the old {userBalances, debts} serialization
type LegacyBalanceReportDTO struct {
	UserBalances []LegacyUserBalanceDTO `json:"userBalances"`
	Debts        []LegacyDebtDTO        `json:"debts"`
}

func memberDTO(m balance.Member) MemberDTO {
	return MemberDTO{ID: m.ID, Name: m.Name, Email: m.Email, Avatar: m.Avatar}
}

// toBalanceReportDTO converts the core's report into the canonical shape
func toBalanceReportDTO(report balance.Report) BalanceReportDTO {
	dto := BalanceReportDTO{
		Members:              make([]MemberBalanceDTO, 0, len(report.Members)),
		Balances:             report.Pairwise,
		OptimizedSettlements: make([]TransferDTO, 0, len(report.Suggested)),
		Warnings:             report.Warnings,
	}
	for _, m := range report.Members {
		dto.Members = append(dto.Members, MemberBalanceDTO{MemberDTO: memberDTO(m.Member), Balance: m.Balance})
	}
	for _, t := range report.Suggested {
		dto.OptimizedSettlements = append(dto.OptimizedSettlements, TransferDTO{
			FromUser: memberDTO(t.From),
			ToUser:   memberDTO(t.To),
			Amount:   t.Amount,
		})
	}
	return dto
}

// toLegacyBalanceReportDTO converts the core's report into the legacy
// {userBalances, debts} shape still consumed by older clients
func toLegacyBalanceReportDTO(report balance.Report) LegacyBalanceReportDTO {
	dto := LegacyBalanceReportDTO{
		UserBalances: make([]LegacyUserBalanceDTO, 0, len(report.Members)),
		Debts:        make([]LegacyDebtDTO, 0, len(report.Suggested)),
	}
	for _, m := range report.Members {
		dto.UserBalances = append(dto.UserBalances, LegacyUserBalanceDTO{
			UserID:    m.ID,
			UserName:  m.Name,
			UserEmail: m.Email,
			UserImage: m.Avatar,
			Balance:   m.Balance,
		})
	}
	for _, t := range report.Suggested {
		dto.Debts = append(dto.Debts, LegacyDebtDTO{
			FromUserID:    t.From.ID,
			FromUserName:  t.From.Name,
			FromUserEmail: t.From.Email,
			FromUserImage: t.From.Avatar,
			ToUserID:      t.To.ID,
			ToUserName:    t.To.Name,
			ToUserEmail:   t.To.Email,
			ToUserImage:   t.To.Avatar,
			Amount:        t.Amount,
		})
	}
	return dto
}
