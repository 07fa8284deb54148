package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collocshare/internal/balance"
)

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "plain number", input: `12.5`, want: 12.5},
		{name: "integer", input: `30`, want: 30},
		{name: "numeric string", input: `"12.50"`, want: 12.5},
		{name: "string with spaces", input: `" 7.25 "`, want: 7.25},
		{name: "negative number", input: `-3.1`, want: -3.1},
		{name: "empty string", input: `""`, wantErr: true},
		{name: "word", input: `"twelve"`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, float64(a), 1e-9)
		})
	}
}

func sampleReport() balance.Report {
	alice := balance.Member{ID: 1, Name: "Alice", Email: "alice@example.com"}
	bob := balance.Member{ID: 2, Name: "Bob", Email: "bob@example.com", Avatar: "https://cdn.example.com/bob.png"}

	return balance.Report{
		Members: []balance.MemberBalance{
			{Member: alice, Balance: 15},
			{Member: bob, Balance: -15},
		},
		Pairwise: map[uint]map[uint]float64{
			2: {1: 15},
		},
		Suggested: []balance.Transfer{
			{From: bob, To: alice, Amount: 15},
		},
	}
}

func TestToBalanceReportDTO(t *testing.T) {
	dto := toBalanceReportDTO(sampleReport())

	require.Len(t, dto.Members, 2)
	assert.Equal(t, uint(1), dto.Members[0].ID)
	assert.Equal(t, "Alice", dto.Members[0].Name)
	assert.InDelta(t, 15.0, dto.Members[0].Balance, 1e-9)
	assert.InDelta(t, -15.0, dto.Members[1].Balance, 1e-9)

	assert.InDelta(t, 15.0, dto.Balances[2][1], 1e-9)

	require.Len(t, dto.OptimizedSettlements, 1)
	assert.Equal(t, uint(2), dto.OptimizedSettlements[0].FromUser.ID)
	assert.Equal(t, uint(1), dto.OptimizedSettlements[0].ToUser.ID)
	assert.InDelta(t, 15.0, dto.OptimizedSettlements[0].Amount, 1e-9)
}

func TestToLegacyBalanceReportDTO(t *testing.T) {
	dto := toLegacyBalanceReportDTO(sampleReport())

	require.Len(t, dto.UserBalances, 2)
	assert.Equal(t, uint(1), dto.UserBalances[0].UserID)
	assert.Equal(t, "alice@example.com", dto.UserBalances[0].UserEmail)
	assert.InDelta(t, -15.0, dto.UserBalances[1].Balance, 1e-9)

	require.Len(t, dto.Debts, 1)
	debt := dto.Debts[0]
	assert.Equal(t, uint(2), debt.FromUserID)
	assert.Equal(t, "Bob", debt.FromUserName)
	assert.Equal(t, uint(1), debt.ToUserID)
	assert.Equal(t, "Alice", debt.ToUserName)
	assert.InDelta(t, 15.0, debt.Amount, 1e-9)
}

func TestLegacyReportFieldNames(t *testing.T) {
	raw, err := json.Marshal(toLegacyBalanceReportDTO(sampleReport()))
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "userBalances")
	assert.Contains(t, decoded, "debts")

	var debts []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["debts"], &debts))
	require.Len(t, debts, 1)
	for _, key := range []string{"fromUserId", "fromUserName", "toUserId", "toUserName", "amount"} {
		assert.Contains(t, debts[0], key)
	}
}
