package mcp

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/dates"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// Clients often send booleans and numbers as strings, so those fields are
// declared as any and coerced here.

func invalid(field string, v any, err error) error {
	return bridgeerr.Newf(bridgeerr.InvalidValue, "invalid %s: %v", field, v).
		WithDetails(map[string]any{"field": field, "reason": err.Error()})
}

func optBool(field string, v any) (*bool, error) {
	if v == nil || v == "" {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, invalid(field, v, err)
	}
	return &b, nil
}

func boolOr(field string, v any, dflt bool) (bool, error) {
	b, err := optBool(field, v)
	if err != nil || b == nil {
		return dflt, err
	}
	return *b, nil
}

func optInt(field string, v any) (*int, error) {
	if v == nil || v == "" {
		return nil, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, invalid(field, v, err)
	}
	return &n, nil
}

func intOr(field string, v any, dflt int) (int, error) {
	n, err := optInt(field, v)
	if err != nil || n == nil {
		return dflt, err
	}
	return *n, nil
}

// stringList accepts a JSON array or a comma-separated string.
func stringList(field string, v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, invalid(field, v, err)
	}
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func optDate(field, s string, now time.Time) (*models.Timestamp, error) {
	ts, err := dates.ParsePtr(s, now)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.InvalidValue, err, "invalid "+field+": "+s).
			WithSuggestion(`use YYYY-MM-DD, "YYYY-MM-DD HH:mm" or a relative form such as "tomorrow" or "+3d"`).
			WithDetails(map[string]any{"field": field})
	}
	return ts, nil
}

// dateChange maps an optional update argument: absent leaves the date alone,
// "" clears it.
func dateChange(field string, s *string, now time.Time) (*models.DateChange, error) {
	if s == nil {
		return nil, nil
	}
	if v := strings.TrimSpace(*s); v == "" || strings.EqualFold(v, "none") {
		return &models.DateChange{Clear: true}, nil
	}
	ts, err := optDate(field, *s, now)
	if err != nil {
		return nil, err
	}
	return &models.DateChange{Value: ts}, nil
}

func ruleFrom(unit string, steps any, method string) (*models.RepetitionRule, error) {
	if strings.TrimSpace(unit) == "" {
		return nil, nil
	}
	n, err := intOr("repeat_every", steps, 1)
	if err != nil {
		return nil, err
	}
	return &models.RepetitionRule{
		Unit:   models.NormalizeUnit(unit),
		Steps:  n,
		Method: models.NormalizeMethod(method),
	}, nil
}
