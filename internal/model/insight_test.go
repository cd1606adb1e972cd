package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimeHorizon(t *testing.T) {
	tests := []struct {
		in   string
		want TimeHorizon
		ok   bool
	}{
		{"0-3 months", Horizon0To3, true},
		{"  3-6 Months ", Horizon3To6, true},
		{"6-12 MONTHS", Horizon6To12, true},
		{"12+ months", Horizon12Plus, true},
		{"next year", "next year", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeTimeHorizon(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestNormalizeBudgetSignal(t *testing.T) {
	got, ok := NormalizeBudgetSignal(" HIGH ")
	assert.True(t, ok)
	assert.Equal(t, BudgetHigh, got)

	_, ok = NormalizeBudgetSignal("enormous")
	assert.False(t, ok)
}

func TestActorCanApprove(t *testing.T) {
	author := Actor{ID: "u1", Role: "consultant"}
	assert.True(t, author.CanApprove("u1"))
	assert.False(t, author.CanApprove("u2"))

	leader := Actor{ID: "u9", Role: "leader"}
	assert.True(t, leader.CanApprove("u2"))

	admin := Actor{ID: "u9", Role: "admin"}
	assert.True(t, admin.CanApprove("u2"))
}
