//go:build api

// Package api 结算接口测试
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escortdollars/affiliate-backend/internal/models"
	"github.com/escortdollars/affiliate-backend/tests/helpers"
)

func TestPayoutAPI_CreateFromCommissions(t *testing.T) {
	env := newTestEnv(t)

	ambassador := helpers.NewTestAmbassador()
	token := env.seedUser(t, ambassador)

	c1 := helpers.NewTestCommission(ambassador.ID, 30, models.CommissionStatusApproved)
	c2 := helpers.NewTestCommission(ambassador.ID, 30, models.CommissionStatusApproved)
	require.NoError(t, env.db.Create(c1).Error)
	require.NoError(t, env.db.Create(c2).Error)

	_, resp := env.request(t, http.MethodPost, "/api/v1/payouts", map[string]interface{}{
		"commission_ids": []int64{c1.ID, c2.ID},
		"method":         "usdt",
		"wallet_address": "TTestWalletAddress00000000000000000",
	}, token)
	require.Equal(t, 0, resp.Code, resp.Message)

	var payout models.Payout
	require.NoError(t, json.Unmarshal(resp.Data, &payout))
	assert.Equal(t, 60.0, payout.Amount)
	assert.Equal(t, models.PayoutStatusPending, payout.Status)
	assert.NotEmpty(t, payout.BatchNo)

	// 同一批佣金不允许重复发起结算
	w, _ := env.request(t, http.MethodPost, "/api/v1/payouts", map[string]interface{}{
		"commission_ids": []int64{c1.ID, c2.ID},
		"method":         "usdt",
		"wallet_address": "TTestWalletAddress00000000000000000",
	}, token)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestPayoutAPI_BelowMinimum(t *testing.T) {
	env := newTestEnv(t)

	ambassador := helpers.NewTestAmbassador()
	token := env.seedUser(t, ambassador)

	c := helpers.NewTestCommission(ambassador.ID, 10, models.CommissionStatusApproved)
	require.NoError(t, env.db.Create(c).Error)

	w, _ := env.request(t, http.MethodPost, "/api/v1/payouts", map[string]interface{}{
		"commission_ids": []int64{c.ID},
		"method":         "usdt",
		"wallet_address": "TTestWalletAddress00000000000000000",
	}, token)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestPayoutAPI_GetByIDOwnership(t *testing.T) {
	env := newTestEnv(t)

	owner := helpers.NewTestAmbassador()
	ownerToken := env.seedUser(t, owner)
	other := helpers.NewTestAmbassador()
	otherToken := env.seedUser(t, other)

	payout := helpers.NewTestPayout(owner.ID, 80, models.PayoutStatusPending)
	require.NoError(t, env.db.Create(payout).Error)

	path := fmt.Sprintf("/api/v1/payouts/%d", payout.ID)

	_, resp := env.request(t, http.MethodGet, path, nil, ownerToken)
	assert.Equal(t, 0, resp.Code)

	w, _ := env.request(t, http.MethodGet, path, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPayoutAPI_List(t *testing.T) {
	env := newTestEnv(t)

	ambassador := helpers.NewTestAmbassador()
	token := env.seedUser(t, ambassador)

	require.NoError(t, env.db.Create(helpers.NewTestPayout(ambassador.ID, 80, models.PayoutStatusCompleted)).Error)
	require.NoError(t, env.db.Create(helpers.NewTestPayout(ambassador.ID, 120, models.PayoutStatusPending)).Error)

	_, resp := env.request(t, http.MethodGet, "/api/v1/payouts", nil, token)
	require.Equal(t, 0, resp.Code)

	var page struct {
		List  []*models.Payout `json:"list"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(2), page.Total)
}
