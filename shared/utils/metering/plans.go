package metering

import (
	"strconv"
	"strings"

	"pressgrid-backend/shared/database/models"
)

// Static requests-per-month ceiling per plan tier. CUSTOM plans carry
// their limit on the organization record.
var planLimits = map[models.Plan]int64{
	models.PlanFree:   2500,
	models.PlanGrowth: 50000,
	models.PlanScale:  500000,
}

// Unlimited disables the hard limit (CUSTOM plans with no configured cap)
const Unlimited int64 = 0

// HardLimitFor returns the monthly request ceiling for an organization
func HardLimitFor(plan models.Plan, customLimit int64) int64 {
	if plan == models.PlanCustom {
		if customLimit > 0 {
			return customLimit
		}
		return Unlimited
	}
	if limit, ok := planLimits[plan]; ok {
		return limit
	}
	// Unknown plan values get the most restrictive tier.
	return planLimits[models.PlanFree]
}

// SoftLimitFor returns the warning threshold for a hard limit
func SoftLimitFor(hardLimit int64, softPercent int) int64 {
	if hardLimit == Unlimited {
		return Unlimited
	}
	return hardLimit * int64(softPercent) / 100
}

// FormatCount renders a count with thousands separators for limit messages
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
