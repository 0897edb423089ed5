// Package utils 提供通用工具函数
package utils

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GenerateOrderNo 生成订单号
// 格式: 前缀 + 年月日时分秒 + 6位随机数
func GenerateOrderNo(prefix string) string {
	now := time.Now()
	timestamp := now.Format("20060102150405")
	random := GenerateRandomNumber(6)
	return fmt.Sprintf("%s%s%s", prefix, timestamp, random)
}

// GenerateRandomNumber 生成指定长度的随机数字字符串
func GenerateRandomNumber(length int) string {
	var result strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		result.WriteString(strconv.Itoa(int(n.Int64())))
	}
	return result.String()
}

// ValidatePhone 验证手机号
func ValidatePhone(phone string) bool {
	pattern := `^\+?\d{8,15}$`
	matched, _ := regexp.MatchString(pattern, phone)
	return matched
}

// Round2 金额保留两位小数
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// DaysBetween 两个日期之间的自然日天数（含首尾），按给定时区取日期
func DaysBetween(start, end time.Time, loc *time.Location) int {
	s := start.In(loc)
	e := end.In(loc)
	sDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	eDay := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, loc)
	if eDay.Before(sDay) {
		return 0
	}
	return int(eDay.Sub(sDay).Hours()/24) + 1
}

// MaxTime 返回较晚的时间
func MaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// MinTime 返回较早的时间
func MinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
