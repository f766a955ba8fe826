package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const notAvailable = "N/A"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"01-02-06",
}

// parseCount reads a volunteer count. Blank cells count as zero.
func parseCount(raw string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("قيمة غير رقمية: %q", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("قيمة سالبة: %q", raw)
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("قيمة غير صحيحة: %q", raw)
	}
	return int(v), nil
}

// parseDate accepts text dates and raw Excel serial numbers.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// formatDate renders a date cell the way it is shown in exports: the date part only.
func formatDate(raw string) string {
	if t, ok := parseDate(raw); ok {
		return t.Format("2006-01-02")
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return notAvailable
	}
	return strings.Fields(s)[0]
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// periodCounter picks the most frequent month and year. Ties go to the value seen first.
type periodCounter struct {
	months map[int]int
	years  map[int]int
	order  []time.Time
}

func newPeriodCounter() *periodCounter {
	return &periodCounter{months: make(map[int]int), years: make(map[int]int)}
}

func (c *periodCounter) add(t time.Time) {
	c.months[int(t.Month())]++
	c.years[t.Year()]++
	c.order = append(c.order, t)
}

func (c *periodCounter) result(fallback time.Time) (month, year int) {
	month, year = int(fallback.Month()), fallback.Year()
	bestMonth, bestYear := 0, 0
	for _, t := range c.order {
		if n := c.months[int(t.Month())]; n > bestMonth {
			bestMonth, month = n, int(t.Month())
		}
		if n := c.years[t.Year()]; n > bestYear {
			bestYear, year = n, t.Year()
		}
	}
	return month, year
}
