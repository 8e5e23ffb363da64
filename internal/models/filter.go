package models

import (
	"slices"
	"strings"
)

// Tag membership modes for TaskFilter.TagMode.
const (
	TagModeAnd   = "AND"
	TagModeOr    = "OR"
	TagModeNotIn = "NOT_IN"
)

// TaskFilter selects tasks. Nil pointers and empty values do not constrain.
// Date bounds are exclusive: DueBefore matches due < bound, DueAfter due > bound.
type TaskFilter struct {
	IDs             []string   `json:"ids,omitempty"`
	Completed       *bool      `json:"completed,omitempty"`
	Flagged         *bool      `json:"flagged,omitempty"`
	Dropped         *bool      `json:"dropped,omitempty"`
	Blocked         *bool      `json:"blocked,omitempty"`
	Available       *bool      `json:"available,omitempty"`
	InInbox         *bool      `json:"inInbox,omitempty"`
	ProjectID       string     `json:"projectId,omitempty"`
	ProjectName     string     `json:"projectName,omitempty"`
	Search          string     `json:"search,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	TagMode         string     `json:"tagMode,omitempty"`
	DueBefore       *Timestamp `json:"dueBefore,omitempty"`
	DueAfter        *Timestamp `json:"dueAfter,omitempty"`
	DeferBefore     *Timestamp `json:"deferBefore,omitempty"`
	DeferAfter      *Timestamp `json:"deferAfter,omitempty"`
	PlannedBefore   *Timestamp `json:"plannedBefore,omitempty"`
	PlannedAfter    *Timestamp `json:"plannedAfter,omitempty"`
	CompletedBefore *Timestamp `json:"completedBefore,omitempty"`
	CompletedAfter  *Timestamp `json:"completedAfter,omitempty"`
	HasDueDate      *bool      `json:"hasDueDate,omitempty"`
	Overdue         bool       `json:"overdue,omitempty"`
	IncludeDetails  bool       `json:"includeDetails,omitempty"`
	Limit           int        `json:"limit,omitempty"`
}

// EffectiveTagMode returns the tag mode, defaulting to OR.
func (f TaskFilter) EffectiveTagMode() string {
	if f.TagMode == "" {
		return TagModeOr
	}
	return strings.ToUpper(f.TagMode)
}

// Matches is the in-process mirror of the predicate compiled into list scripts.
func (f TaskFilter) Matches(t Task, now Timestamp) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, t.ID) {
		return false
	}
	if !boolMatches(f.Completed, t.Completed) || !boolMatches(f.Flagged, t.Flagged) ||
		!boolMatches(f.Dropped, t.Dropped) || !boolMatches(f.Blocked, t.Blocked) ||
		!boolMatches(f.InInbox, t.InInbox) {
		return false
	}
	if f.Available != nil && *f.Available != t.Available {
		return false
	}
	if f.ProjectID != "" && (t.ProjectID == nil || *t.ProjectID != f.ProjectID) {
		return false
	}
	if f.ProjectName != "" && !strings.EqualFold(t.ProjectName(), f.ProjectName) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Name), q) && !strings.Contains(strings.ToLower(t.Note), q) {
			return false
		}
	}
	if len(f.Tags) > 0 && !tagsMatch(f.Tags, f.EffectiveTagMode(), t.Tags) {
		return false
	}
	if f.HasDueDate != nil && *f.HasDueDate != (t.DueDate != nil) {
		return false
	}
	if f.Overdue && !t.IsOverdue(now) {
		return false
	}
	return inRange(t.DueDate, f.DueBefore, f.DueAfter) &&
		inRange(t.DeferDate, f.DeferBefore, f.DeferAfter) &&
		inRange(t.PlannedDate, f.PlannedBefore, f.PlannedAfter) &&
		inRange(t.CompletionDate, f.CompletedBefore, f.CompletedAfter)
}

// FilterTasks keeps the tasks matching f, preserving order.
func FilterTasks(tasks []Task, f TaskFilter, now Timestamp) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t, now) {
			out = append(out, t)
		}
	}
	return out
}

func boolMatches(want *bool, got bool) bool {
	return want == nil || *want == got
}

// inRange applies exclusive bounds. A missing value never satisfies a bound.
func inRange(v, before, after *Timestamp) bool {
	if before == nil && after == nil {
		return true
	}
	if v == nil {
		return false
	}
	if before != nil && !v.Before(before.Time) {
		return false
	}
	if after != nil && !v.After(after.Time) {
		return false
	}
	return true
}

func tagsMatch(want []string, mode string, have []string) bool {
	has := func(name string) bool {
		for _, h := range have {
			if strings.EqualFold(h, name) {
				return true
			}
		}
		return false
	}
	switch mode {
	case TagModeAnd:
		for _, w := range want {
			if !has(w) {
				return false
			}
		}
		return true
	case TagModeNotIn:
		for _, w := range want {
			if has(w) {
				return false
			}
		}
		return true
	default:
		for _, w := range want {
			if has(w) {
				return true
			}
		}
		return false
	}
}

// ProjectFilter selects projects.
type ProjectFilter struct {
	Statuses    []string `json:"statuses,omitempty"`
	Flagged     *bool    `json:"flagged,omitempty"`
	FolderName  string   `json:"folder,omitempty"`
	Search      string   `json:"search,omitempty"`
	NeedsReview bool     `json:"needsReview,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// IsZero reports whether the filter selects every project.
func (f ProjectFilter) IsZero() bool {
	return len(f.Statuses) == 0 && f.Flagged == nil && f.FolderName == "" &&
		f.Search == "" && !f.NeedsReview && f.Limit == 0
}

// Matches applies the filter in process; used on cached project lists.
func (f ProjectFilter) Matches(p Project, now Timestamp) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status) {
		return false
	}
	if !boolMatches(f.Flagged, p.Flagged) {
		return false
	}
	if f.FolderName != "" && (p.Folder == nil || !strings.EqualFold(*p.Folder, f.FolderName)) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Note), strings.ToLower(f.Search)) {
		return false
	}
	if f.NeedsReview && !p.NeedsReview(now) {
		return false
	}
	return true
}

// TagFilter selects tags.
type TagFilter struct {
	Search       string `json:"search,omitempty"`
	TopLevelOnly bool   `json:"topLevelOnly,omitempty"`
}

// Matches applies the filter in process.
func (f TagFilter) Matches(t Tag) bool {
	if f.TopLevelOnly && t.Parent != nil {
		return false
	}
	return f.Search == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Search))
}

// Bool returns a pointer to b, for building filters.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
