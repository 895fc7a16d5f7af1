package metering

import (
	"testing"

	"pressgrid-backend/shared/database/models"

	"github.com/stretchr/testify/assert"
)

func TestHardLimitFor(t *testing.T) {
	tests := []struct {
		name        string
		plan        models.Plan
		customLimit int64
		want        int64
	}{
		{"free", models.PlanFree, 0, 2500},
		{"growth", models.PlanGrowth, 0, 50000},
		{"scale", models.PlanScale, 0, 500000},
		{"custom with override", models.PlanCustom, 100000, 100000},
		{"custom without override is unlimited", models.PlanCustom, 0, Unlimited},
		{"custom ignores negative override", models.PlanCustom, -5, Unlimited},
		{"unknown plan falls back to the free tier", models.Plan("ENTERPRISE"), 0, 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HardLimitFor(tt.plan, tt.customLimit))
		})
	}
}

func TestSoftLimitFor(t *testing.T) {
	assert.Equal(t, int64(2000), SoftLimitFor(2500, 80))
	assert.Equal(t, int64(40000), SoftLimitFor(50000, 80))
	assert.Equal(t, int64(1250), SoftLimitFor(2500, 50))
	assert.Equal(t, Unlimited, SoftLimitFor(Unlimited, 80))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "42", FormatCount(42))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "2,500", FormatCount(2500))
	assert.Equal(t, "50,000", FormatCount(50000))
	assert.Equal(t, "500,000", FormatCount(500000))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}
