// Package format renders portal values for display.
package format

import (
	"strings"
	"time"
)

// Placeholder is shown for absent or unreadable values.
const Placeholder = "-"

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date renders a timestamp as YYYY-MM-DD in loc (local time when nil).
func Date(raw string, loc *time.Location) string {
	t, ok := parse(raw, loc)
	if !ok {
		return Placeholder
	}
	return t.Format("2006-01-02")
}

// DateTime renders a timestamp as YYYY-MM-DD HH:MM in loc.
func DateTime(raw string, loc *time.Location) string {
	t, ok := parse(raw, loc)
	if !ok {
		return Placeholder
	}
	return t.Format("2006-01-02 15:04")
}

func parse(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Badge is a display label with its CSS badge class.
type Badge struct {
	Label string `json:"label"`
	Class string `json:"class"`
}

var statusBadges = map[string]Badge{
	"borrowed": {Label: "借阅中", Class: "badge-primary"},
	"returned": {Label: "已归还", Class: "badge-success"},
	"waiting":  {Label: "预约等待", Class: "badge-warning"},
	"canceled": {Label: "已取消", Class: "badge-secondary"},
	"active":   {Label: "正常", Class: "badge-success"},
	"disabled": {Label: "禁用", Class: "badge-danger"},
	"admin":    {Label: "管理员", Class: "badge-dark"},
	"user":     {Label: "普通用户", Class: "badge-info"},
}

var overdueBadge = Badge{Label: "已逾期", Class: "badge-danger"}

// Status maps a loan, reservation, account or role status to its badge.
// Overdue wins over any status; unknown statuses label themselves.
func Status(status string, overdue bool) Badge {
	if overdue {
		return overdueBadge
	}
	if b, ok := statusBadges[status]; ok {
		return b
	}
	return Badge{Label: status, Class: "badge-secondary"}
}
