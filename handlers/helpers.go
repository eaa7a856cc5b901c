package handlers

import (
	"time"
)

// parseDate 解析前端传入的日期字符串
// 兼容RFC3339时间戳和纯日期两种格式
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// parseDateOrNil 解析可选日期，空串返回nil
func parseDateOrNil(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// monthStart 返回指定时间所在月份的起点
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
