package content

import (
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/tccsite/internal/domain/models"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// order sorts recs in place into the collection's read order.
func order(c models.Collection, recs []models.Record) {
	switch c.Order {
	case models.OrderReverse:
		for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
			recs[i], recs[j] = recs[j], recs[i]
		}
	case models.OrderDateDesc:
		epoch := time.Unix(0, 0)
		sort.SliceStable(recs, func(i, j int) bool {
			a, ok := recordDate(recs[i], c.DateField)
			if !ok {
				a = epoch
			}
			b, ok := recordDate(recs[j], c.DateField)
			if !ok {
				b = epoch
			}
			return a.After(b)
		})
	case models.OrderDateDescUndatedLast:
		sort.SliceStable(recs, func(i, j int) bool {
			a, aok := recordDate(recs[i], c.DateField)
			b, bok := recordDate(recs[j], c.DateField)
			switch {
			case aok && bok:
				return a.After(b)
			default:
				return aok && !bok
			}
		})
	}
}

// recordDate reads a date field written as a string in one of the common
// layouts or as Unix milliseconds.
func recordDate(rec models.Record, field string) (time.Time, bool) {
	switch v := rec[field].(type) {
	case string:
		return parseDate(v)
	case float64:
		return time.UnixMilli(int64(v)), true
	case int:
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
