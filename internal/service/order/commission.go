package order

// 佣金计算，全部为无副作用的纯函数

// ShopCommission 店铺佣金 = 小计 × 佣金率，任一操作数非正时为 0
func ShopCommission(subtotal, rate float64) float64 {
	if subtotal <= 0 || rate <= 0 {
		return 0
	}
	return subtotal * rate
}

// PlatformCommission 平台净佣金
// 积分抵扣和免配送费补贴全部由平台毛利吸收，最低压到 0，永不为负
func PlatformCommission(shopCommission, pointsDiscount, freeDeliveryCost float64) float64 {
	commission := shopCommission - pointsDiscount - freeDeliveryCost
	if commission < 0 {
		return 0
	}
	return commission
}

// ShopEarnings 店铺应得 = 小计 − 店铺佣金
// 与积分抵扣、免配送费无关：这些成本只走平台佣金线，不影响店铺
func ShopEarnings(subtotal, shopCommission float64) float64 {
	return subtotal - shopCommission
}

// CanApplyDiscount 优惠是否可以附加到订单
// 任何积分抵扣或免配送费促销的总额都不能超过店铺佣金
func CanApplyDiscount(shopCommission, totalDiscount float64) bool {
	return totalDiscount <= shopCommission
}
