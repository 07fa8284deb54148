package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/balance"
	"collocshare/internal/models"
	"collocshare/internal/services"
)

type ShoppingHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewShoppingHandler(db *gorm.DB, cache *services.RedisCache) *ShoppingHandler {
	return &ShoppingHandler{db: db, cache: cache}
}

type createShoppingItemRequest struct {
	Name             string  `json:"name"`
	Quantity         int     `json:"quantity"`
	Unit             string  `json:"unit"`
	Price            *Amount `json:"price"`
	Category         string  `json:"category"`
	Shared           bool    `json:"shared"`
	NeedVerification bool    `json:"needVerification"`
}

type updateShoppingItemRequest struct {
	Name             *string `json:"name"`
	Quantity         *int    `json:"quantity"`
	Unit             *string `json:"unit"`
	Price            *Amount `json:"price"`
	Category         *string `json:"category"`
	Shared           *bool   `json:"shared"`
	NeedVerification *bool   `json:"needVerification"`
}

type purchaseRequest struct {
	Price *Amount `json:"price"`
}

type toExpenseRequest struct {
	Description string `json:"description"`
}

// ListItems returns a colocation's shopping list, pending items first
func (h *ShoppingHandler) ListItems(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var items []models.ShoppingItem
	err = h.db.Preload("User").Preload("PurchasedBy").
		Where("colocation_id = ?", colocationID).
		Order("purchased ASC, created_at DESC").
		Find(&items).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch shopping list")
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// CreateItem adds an item to the shopping list
func (h *ShoppingHandler) CreateItem(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var req createShoppingItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Item name is required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	item := models.ShoppingItem{
		ColocationID:     colocationID,
		UserID:           currentUserID(c),
		Name:             strings.TrimSpace(req.Name),
		Quantity:         req.Quantity,
		Unit:             req.Unit,
		Category:         req.Category,
		Shared:           req.Shared,
		NeedVerification: req.NeedVerification,
	}
	if req.Price != nil {
		price := float64(*req.Price)
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return echo.NewHTTPError(http.StatusBadRequest, "Price must be a non-negative number")
		}
		rounded := balance.Round(price)
		item.Price = &rounded
	}

	if err := h.db.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add item")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Item added",
		"item":    item,
	})
}

// GetItem returns one shopping list item
func (h *ShoppingHandler) GetItem(c echo.Context) error {
	item, err := h.loadItem(c)
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, item.ColocationID); err != nil {
		return err
	}

	var full models.ShoppingItem
	if err := h.db.Preload("User").Preload("PurchasedBy").First(&full, item.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch item")
	}

	return c.JSON(http.StatusOK, map[string]any{"item": full})
}

// UpdateItem patches a shopping list item
func (h *ShoppingHandler) UpdateItem(c echo.Context) error {
	item, err := h.loadItem(c)
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, item.ColocationID); err != nil {
		return err
	}

	var req updateShoppingItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Item name cannot be empty")
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Quantity must be positive")
		}
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Shared != nil {
		item.Shared = *req.Shared
	}
	if req.NeedVerification != nil {
		item.NeedVerification = *req.NeedVerification
	}
	if req.Price != nil {
		price := float64(*req.Price)
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return echo.NewHTTPError(http.StatusBadRequest, "Price must be a non-negative number")
		}
		rounded := balance.Round(price)
		item.Price = &rounded
	}

	if err := h.db.Save(item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update item")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Item updated",
		"item":    item,
	})
}

// DeleteItem removes an item from the list
func (h *ShoppingHandler) DeleteItem(c echo.Context) error {
	item, err := h.loadItem(c)
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, item.ColocationID); err != nil {
		return err
	}

	if err := h.db.Delete(item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete item")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Item deleted"})
}

// PurchaseItem marks an item as bought by the caller, optionally recording
// the actual price paid at the till.
func (h *ShoppingHandler) PurchaseItem(c echo.Context) error {
	item, err := h.loadItem(c)
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, item.ColocationID); err != nil {
		return err
	}
	if item.Purchased {
		return echo.NewHTTPError(http.StatusBadRequest, "This item is already marked as purchased")
	}

	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Price != nil {
		price := float64(*req.Price)
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return echo.NewHTTPError(http.StatusBadRequest, "Price must be a non-negative number")
		}
		rounded := balance.Round(price)
		item.Price = &rounded
	}

	now := time.Now()
	userID := currentUserID(c)
	item.Purchased = true
	item.PurchasedByID = &userID
	item.PurchasedAt = &now

	if err := h.db.Save(item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update item")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Item marked as purchased",
		"item":    item,
	})
}

// ToExpense converts a purchased shared item into an expense split equally
// across the active roster, paid by whoever bought it.
func (h *ShoppingHandler) ToExpense(c echo.Context) error {
	item, err := h.loadItem(c)
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, item.ColocationID); err != nil {
		return err
	}

	if !item.Purchased || item.PurchasedByID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Only purchased items can be converted to an expense")
	}
	if item.Price == nil || *item.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "The item needs a price before it can become an expense")
	}
	if !item.Shared {
		return echo.NewHTTPError(http.StatusBadRequest, "Only shared items can be converted to an expense")
	}

	var req toExpenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Shopping: %s", item.Name)
	}

	members, err := activeMembers(h.db, item.ColocationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
	}
	if len(members) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "The colocation has no active members")
	}

	payerID := *item.PurchasedByID
	amount := balance.Round(*item.Price)
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}

	expense := models.Expense{
		ColocationID: item.ColocationID,
		PaidByID:     payerID,
		Amount:       amount,
		Description:  description,
		Category:     "Courses",
		Date:         time.Now(),
		SplitType:    models.SplitTypeEqual,
	}
	participants := equalShares(amount, payerID, ids)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ExpenseID = expense.ID
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		// The item leaves the list once it is accounted for
		return tx.Delete(item).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to convert item to expense")
	}

	_ = h.cache.Delete(c.Request().Context(), services.BalanceCacheKey(item.ColocationID))

	expense.Participants = participants
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Item converted to expense",
		"expense": expense,
	})
}

func (h *ShoppingHandler) loadItem(c echo.Context) (*models.ShoppingItem, error) {
	id, err := paramUint(c, "itemId")
	if err != nil {
		return nil, err
	}

	var item models.ShoppingItem
	err = h.db.First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Item not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch item")
	}
	return &item, nil
}
