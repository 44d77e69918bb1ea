package filescan

import (
	"strconv"
	"strings"
	"time"

	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
)

// matchesAll applies every criterion to one raw row. Criteria combine
// with AND; a NULL value never matches any filter.
func matchesAll(rec record, criteria []querydef.Criterion) (bool, error) {
	for _, criterion := range criteria {
		ok, err := matches(rec, criterion)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matches(rec record, criterion querydef.Criterion) (bool, error) {
	value, present := rec[criterion.CriterionField().Name]
	if !present {
		// Original behavior for flat files: a filter on a missing
		// column restricts nothing.
		return true, nil
	}
	if value == nil {
		return false, nil
	}

	switch c := criterion.(type) {
	case querydef.StringCriterion:
		return matchString(value, c), nil
	case querydef.NumericCriterion:
		return matchNumeric(value, c), nil
	case querydef.DateCriterion:
		return matchDate(value, c), nil
	case querydef.SetCriterion:
		return matchSet(value, c), nil
	default:
		return false, qerror.New(qerror.KindValidation, "unsupported criterion type %T", criterion)
	}
}

func matchString(value any, c querydef.StringCriterion) bool {
	text, ok := toText(value).(string)
	if !ok {
		return false
	}
	switch c.Match {
	case querydef.MatchStartsWith:
		return strings.HasPrefix(text, c.Value)
	case querydef.MatchEndsWith:
		return strings.HasSuffix(text, c.Value)
	case querydef.MatchContains:
		return strings.Contains(text, c.Value)
	default:
		return text == c.Value
	}
}

func matchNumeric(value any, c querydef.NumericCriterion) bool {
	number, ok := toNumber(value).(float64)
	if !ok {
		return false
	}
	if c.Mode == querydef.ModeRange {
		return number >= c.Low && number <= c.High
	}
	return number == c.Value
}

func matchDate(value any, c querydef.DateCriterion) bool {
	date, ok := toDate(value).(time.Time)
	if !ok {
		return false
	}
	if c.Mode == querydef.ModeRange {
		start, okStart := toDate(c.Start).(time.Time)
		end, okEnd := toDate(c.End).(time.Time)
		if !okStart || !okEnd {
			return false
		}
		return !date.Before(start) && !date.After(end)
	}
	exact, okExact := toDate(c.Value).(time.Time)
	return okExact && date.Equal(exact)
}

func matchSet(value any, c querydef.SetCriterion) bool {
	switch c.Special {
	case querydef.SpecialAll:
		return true
	case querydef.SpecialNone:
		return false
	}
	text, ok := toText(value).(string)
	if !ok {
		return false
	}
	for _, selected := range c.Selected {
		if text == selected {
			return true
		}
	}
	return false
}

func toNumber(value any) any {
	switch typed := value.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}
