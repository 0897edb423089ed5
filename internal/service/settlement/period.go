// Package settlement 提供周结算周期管理与结算单生成服务
package settlement

import (
	"time"
)

// WeekPeriodFor 计算时间点所属的业务周窗口
// 业务周为周六 00:00 至周五 23:59:59，使用固定偏移时区（无夏令时）
// 周六归一化为偏移 0：offset = (weekday + 1) mod 7
func WeekPeriodFor(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 1) % 7
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}

// NextPeriodStart 下一周期的起点，与上一周期首尾相接
func NextPeriodStart(prevEnd time.Time) time.Time {
	return prevEnd.Add(time.Second)
}

// overlapDays 广告投放区间与结算窗口的重叠天数（按日历日，含首尾）
func overlapDays(adStart, adEnd, windowStart, windowEnd time.Time, loc *time.Location) int {
	start := adStart
	if windowStart.After(start) {
		start = windowStart
	}
	end := adEnd
	if windowEnd.Before(end) {
		end = windowEnd
	}
	if end.Before(start) {
		return 0
	}

	s := start.In(loc)
	e := end.In(loc)
	sDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	eDay := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, loc)
	return int(eDay.Sub(sDay).Hours()/24) + 1
}
