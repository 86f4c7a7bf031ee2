package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(HarnessStatusDevelopment, HarnessStatusReleased))
	assert.True(t, CanTransition(HarnessStatusAssigned, HarnessStatusReceived))
	assert.True(t, CanTransition(HarnessStatusDVPDone, HarnessStatusReceived))
	assert.True(t, CanTransition(HarnessStatusTNVDone, HarnessStatusDVPDone))

	assert.False(t, CanTransition(HarnessStatusDevelopment, HarnessStatusDispatched))
	assert.False(t, CanTransition(HarnessStatusReleased, HarnessStatusDevelopment))
	assert.False(t, CanTransition(HarnessStatusReceived, HarnessStatusTNVDone))
	assert.False(t, CanTransition("UNKNOWN", HarnessStatusReleased))
}

func TestEveryTargetIsAState(t *testing.T) {
	for from, targets := range ValidHarnessTransitions {
		for _, to := range targets {
			_, ok := ValidHarnessTransitions[to]
			assert.True(t, ok, "%s -> %s", from, to)
		}
	}
}

func TestHarnessNormalize(t *testing.T) {
	h := &Harness{}
	h.Normalize()
	assert.Equal(t, VerdictPending, h.DVPStatus)
	assert.Equal(t, VerdictPending, h.TNVStatus)
	assert.Equal(t, HarnessStatusDevelopment, h.Status)
	assert.NotNil(t, h.AssignedVendors)
	assert.NotNil(t, h.VendorETAHistory)
	assert.False(t, h.IsReleased())
}

func TestHasVendor(t *testing.T) {
	h := &Harness{AssignedVendors: []string{"v1", "v2"}}
	assert.True(t, h.HasVendor("v2"))
	assert.False(t, h.HasVendor("v3"))
	assert.False(t, h.HasVendor(""))
}

func TestVerdicts(t *testing.T) {
	assert.True(t, IsValidVerdict(VerdictConditionalPass))
	assert.False(t, IsValidVerdict("pass"))
	assert.True(t, IsPassing(VerdictPass))
	assert.True(t, IsPassing(VerdictConditionalPass))
	assert.False(t, IsPassing(VerdictFail))
	assert.False(t, IsPassing(VerdictPending))
}

func TestETALogSetByIsSummary(t *testing.T) {
	last := time.Now()
	log := HarnessETALog{
		ID:        "log1",
		HarnessID: "h1",
		SetAt:     time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		SetByID:   "u1",
		SetBy: &User{
			ID:          "u1",
			Name:        "Vendor One",
			Email:       "v1@test.com",
			Role:        RoleVendor,
			Company:     "Acme",
			LastLoginAt: &last,
		},
	}

	b, err := json.Marshal([]HarnessETALog{log})
	require.NoError(t, err)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "h1", out[0]["harnessId"])
	assert.Equal(t, map[string]interface{}{"id": "u1", "name": "Vendor One", "email": "v1@test.com"}, out[0]["setBy"])

	log.SetBy = nil
	b, err = json.Marshal(&log)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "setBy")
}
