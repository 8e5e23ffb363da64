package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/ofocus-cli/internal/api"
	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/envelope"
)

const topFindings = 5

func (s *Server) registerAnalyticsTools() {
	addTool(s, &mcp.Tool{
		Name:        "analyze_overdue",
		Description: "Open overdue tasks grouped by project and tag, with age statistics.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleAnalyzeOverdue)
	addTool(s, &mcp.Tool{
		Name:        "productivity_stats",
		Description: "Completions over the last N days (default 7) per day and per project, plus open work counts.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleProductivityStats)
	addTool(s, &mcp.Tool{
		Name:        "analyze_recurring_tasks",
		Description: "Infer recurrence type and frequency for repeating tasks and flag schedule deviations.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleAnalyzeRecurring)
	addTool(s, &mcp.Tool{
		Name:        "system_status",
		Description: "Check that the task manager answers and report its version and round-trip latency.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleSystemStatus)
}

type AnalyzeOverdueInput struct {
	Limit any `json:"limit,omitempty" jsonschema:"maximum tasks listed (groups always cover all)"`
}

func (s *Server) handleAnalyzeOverdue(ctx context.Context, t *envelope.Timer, in AnalyzeOverdueInput) envelope.Envelope {
	limit, err := intOr("limit", in.Limit, 0)
	if err != nil {
		return t.Failure(err, nil)
	}
	r, err := s.client.AnalyzeOverdue(ctx, limit)
	if err != nil {
		return t.Failure(asAnalysis(err), nil)
	}
	return t.Analytic(map[string]any{
		"total":        r.Total,
		"by_project":   r.ByProject,
		"by_tag":       r.ByTag,
		"oldest_days":  r.OldestDays,
		"average_days": r.AverageDays,
		"tasks":        r.Tasks,
	}, envelope.KeyFindings(r.ByProject, topFindings), map[string]any{"count": r.Total})
}

type ProductivityInput struct {
	Days any `json:"days,omitempty" jsonschema:"trailing window in days, 1-365 (default 7)"`
}

func (s *Server) handleProductivityStats(ctx context.Context, t *envelope.Timer, in ProductivityInput) envelope.Envelope {
	days, err := intOr("days", in.Days, 7)
	if err != nil {
		return t.Failure(err, nil)
	}
	r, err := s.client.ProductivityStats(ctx, days)
	if err != nil {
		return t.Failure(asAnalysis(err), nil)
	}
	return t.Analytic(map[string]any{
		"days":          r.Days,
		"since":         r.Since,
		"completed":     r.Completed,
		"daily_average": r.DailyAverage,
		"per_day":       r.PerDay,
		"by_project":    r.ByProject,
		"best_day":      r.BestDay,
		"open":          r.Open,
	}, envelope.KeyFindings(r.ByProject, topFindings), nil)
}

type AnalyzeRecurringInput struct {
	IncludeCompleted any `json:"include_completed,omitempty"`
	IncludeUnruled   any `json:"include_unruled,omitempty" jsonschema:"also infer recurrence from names of tasks without a rule"`
	Limit            any `json:"limit,omitempty"`
}

func (s *Server) handleAnalyzeRecurring(ctx context.Context, t *envelope.Timer, in AnalyzeRecurringInput) envelope.Envelope {
	var opts api.RecurringOptions
	var err error
	if opts.IncludeCompleted, err = boolOr("include_completed", in.IncludeCompleted, false); err != nil {
		return t.Failure(err, nil)
	}
	if opts.IncludeUnruled, err = boolOr("include_unruled", in.IncludeUnruled, false); err != nil {
		return t.Failure(err, nil)
	}
	if opts.Limit, err = intOr("limit", in.Limit, 0); err != nil {
		return t.Failure(err, nil)
	}
	r, err := s.client.AnalyzeRecurring(ctx, opts)
	if err != nil {
		return t.Failure(asAnalysis(err), nil)
	}
	return t.Analytic(map[string]any{
		"total":        r.Total,
		"recurring":    r.Recurring,
		"by_type":      r.ByType,
		"by_frequency": r.ByFrequency,
		"by_source":    r.BySource,
		"deviating":    r.Deviating,
		"tasks":        r.Tasks,
	}, envelope.KeyFindings(r.ByFrequency, topFindings), map[string]any{"count": r.Total})
}

func (s *Server) handleSystemStatus(ctx context.Context, t *envelope.Timer, _ EmptyInput) envelope.Envelope {
	st, err := s.client.Ping(ctx)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(st, nil)
}

// asAnalysis leaves bridge errors alone so their codes survive; anything else
// failed during aggregation.
func asAnalysis(err error) error {
	if _, ok := bridgeerr.As(err); ok {
		return err
	}
	return envelope.AnalysisError(err)
}
