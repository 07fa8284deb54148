package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/balance"
	"collocshare/internal/models"
	"collocshare/internal/services"
)

// Balance reports are cheap to compute but read on every page load, so
// they sit in redis briefly. Writers invalidate the key on every change.
const balanceCacheTTL = 30 * time.Second

type BalanceHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewBalanceHandler(db *gorm.DB, cache *services.RedisCache) *BalanceHandler {
	return &BalanceHandler{db: db, cache: cache}
}

// GetBalance returns the colocation's balance report: per-member net
// balances, the pairwise debt matrix and the minimized settlement plan.
func (h *BalanceHandler) GetBalance(c echo.Context) error {
	report, err := h.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBalanceReportDTO(*report))
}

// GetLegacyBalance serves the same report in the old {userBalances, debts}
// shape for clients that have not migrated yet.
func (h *BalanceHandler) GetLegacyBalance(c echo.Context) error {
	report, err := h.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLegacyBalanceReportDTO(*report))
}

func (h *BalanceHandler) report(c echo.Context) (*balance.Report, error) {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return nil, err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return nil, err
	}

	report, err := services.GetOrSet(h.cache, c.Request().Context(),
		services.BalanceCacheKey(colocationID), balanceCacheTTL,
		func() (balance.Report, error) {
			return h.computeReport(colocationID)
		})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute balances")
	}
	return &report, nil
}

// computeReport loads the colocation's full history and runs the balance
// engine over it.
func (h *BalanceHandler) computeReport(colocationID uint) (balance.Report, error) {
	memberships, err := activeMembers(h.db, colocationID)
	if err != nil {
		return balance.Report{}, err
	}

	var expenses []models.Expense
	if err := h.db.Preload("Participants").
		Where("colocation_id = ?", colocationID).
		Order("date ASC, id ASC").
		Find(&expenses).Error; err != nil {
		return balance.Report{}, err
	}

	var settlements []models.Settlement
	if err := h.db.Where("colocation_id = ?", colocationID).
		Order("created_at ASC, id ASC").
		Find(&settlements).Error; err != nil {
		return balance.Report{}, err
	}

	return balance.Compute(toRoster(memberships), toExpenses(expenses), toSettlements(settlements)), nil
}

func toRoster(memberships []models.Membership) []balance.Member {
	roster := make([]balance.Member, 0, len(memberships))
	for _, m := range memberships {
		roster = append(roster, balance.Member{
			ID:     m.UserID,
			Name:   m.User.Name,
			Email:  m.User.Email,
			Avatar: m.User.Avatar,
		})
	}
	return roster
}

func toExpenses(expenses []models.Expense) []balance.Expense {
	out := make([]balance.Expense, 0, len(expenses))
	for _, e := range expenses {
		shares := make([]balance.Share, 0, len(e.Participants))
		for _, p := range e.Participants {
			shares = append(shares, balance.Share{
				UserID: p.UserID,
				Amount: balance.NormalizeAmount(p.Amount),
			})
		}
		out = append(out, balance.Expense{
			ID:       e.ID,
			PaidByID: e.PaidByID,
			Shares:   shares,
		})
	}
	return out
}

func toSettlements(settlements []models.Settlement) []balance.Settlement {
	out := make([]balance.Settlement, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, balance.Settlement{
			ID:         s.ID,
			FromUserID: s.FromUserID,
			ToUserID:   s.ToUserID,
			Amount:     balance.NormalizeAmount(s.Amount),
		})
	}
	return out
}
