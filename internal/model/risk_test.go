package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskScore(t *testing.T) {
	assert.Equal(t, 1, RiskScore(1, 1))
	assert.Equal(t, 12, RiskScore(3, 4))
	assert.Equal(t, 25, RiskScore(5, 5))
}

func TestRiskLevelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		level string
	}{
		{25, "CRITICAL"},
		{20, "CRITICAL"},
		{19, "HIGH"},
		{12, "HIGH"},
		{11, "MEDIUM"},
		{6, "MEDIUM"},
		{5, "LOW"},
		{1, "LOW"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, RiskLevel(tc.score), "score: %d", tc.score)
	}
}

func TestRiskPriorityBoundaries(t *testing.T) {
	assert.Equal(t, 1, RiskPriority(20))
	assert.Equal(t, 2, RiskPriority(19))
	assert.Equal(t, 2, RiskPriority(12))
	assert.Equal(t, 3, RiskPriority(11))
	assert.Equal(t, 3, RiskPriority(1))
}

func TestIsValidRole(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, IsValidRole(role))
	}
	assert.False(t, IsValidRole("SUPERUSER"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("ciso"))
}
