// Package points 提供积分规则与积分账本服务
package points

import (
	"math"

	"github.com/dumeirei/delivery-market-backend/internal/common/errors"
)

// Rules 积分规则，纯计算，无 I/O
// earnThreshold：每消费多少货币单位获得 1 积分
// pointValue：1 积分抵扣多少货币单位
type Rules struct {
	EarnThreshold float64
	PointValue    float64
	ReferralBonus int
}

// DefaultRules 默认规则：满 100 得 1 分，1 分抵 1 元，邀请奖励 2 分
func DefaultRules() Rules {
	return Rules{
		EarnThreshold: 100.0,
		PointValue:    1.0,
		ReferralBonus: 2,
	}
}

// PointsEarned 消费可得积分，向下取整，不足阈值不得分
func (r Rules) PointsEarned(subtotal float64) int {
	if subtotal <= 0 || r.EarnThreshold <= 0 {
		return 0
	}
	return int(math.Floor(subtotal / r.EarnThreshold))
}

// DiscountValue 积分对应的抵扣金额
func (r Rules) DiscountValue(points int) float64 {
	if points <= 0 {
		return 0
	}
	return float64(points) * r.PointValue
}

// MaxRedeemablePoints 本单最多可抵扣的积分
// 约束条件：抵扣额不能把平台佣金压成负数
func (r Rules) MaxRedeemablePoints(availablePoints int, platformCommission float64) int {
	if r.PointValue <= 0 {
		return 0
	}
	byCommission := int(math.Floor(platformCommission / r.PointValue))
	if availablePoints < byCommission {
		return availablePoints
	}
	return byCommission
}

// ValidateRedemption 校验一次积分抵扣
// 抵扣额恰好等于平台佣金时允许（佣金压到 0 但不为负）
func (r Rules) ValidateRedemption(pointsToUse, availablePoints int, platformCommission float64) error {
	if pointsToUse <= 0 {
		return errors.ErrPointsInvalid
	}
	if pointsToUse > availablePoints {
		return errors.ErrPointsInsufficient
	}
	if r.DiscountValue(pointsToUse) > platformCommission {
		return errors.ErrPointsExceedCommission
	}
	return nil
}
