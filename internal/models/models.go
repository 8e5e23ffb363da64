package models

// Project statuses as reported by the host, normalized to lower camel case.
const (
	ProjectStatusActive  = "active"
	ProjectStatusOnHold  = "onHold"
	ProjectStatusDropped = "dropped"
	ProjectStatusDone    = "done"
)

// ProjectStatuses lists every valid project status in display order.
var ProjectStatuses = []string{ProjectStatusActive, ProjectStatusOnHold, ProjectStatusDropped, ProjectStatusDone}

// Task represents a single action in the GTD application.
type Task struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Note             string            `json:"note,omitempty"`
	Completed        bool              `json:"completed"`
	Flagged          bool              `json:"flagged"`
	Dropped          bool              `json:"dropped"`
	Blocked          bool              `json:"blocked"`
	Available        bool              `json:"available"`
	InInbox          bool              `json:"inInbox"`
	Project          *string           `json:"project"`
	ProjectID        *string           `json:"projectId"`
	ParentID         *string           `json:"parentId,omitempty"`
	Tags             []string          `json:"tags"`
	DueDate          *Timestamp        `json:"dueDate"`
	DeferDate        *Timestamp        `json:"deferDate"`
	PlannedDate      *Timestamp        `json:"plannedDate"`
	CompletionDate   *Timestamp        `json:"completionDate"`
	EstimatedMinutes *int              `json:"estimatedMinutes"`
	RepetitionRule   *RepetitionRule   `json:"repetitionRule"`
	Added            *Timestamp        `json:"added,omitempty"`
	Modified         *Timestamp        `json:"modified,omitempty"`
	DropDate         *Timestamp        `json:"dropDate,omitempty"`
	Recurrence       *RecurrenceStatus `json:"recurrence,omitempty"`
}

// IsOverdue reports whether the task is open and due before the start of now's day.
func (t Task) IsOverdue(now Timestamp) bool {
	if t.Completed || t.Dropped || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(StartOfDay(now.Time))
}

// ProjectName returns the containing project's name or "" for inbox and orphan tasks.
func (t Task) ProjectName() string {
	if t.Project == nil {
		return ""
	}
	return *t.Project
}

// ReviewInterval is a project's review cadence.
type ReviewInterval struct {
	Unit  string `json:"unit"`
	Steps int    `json:"steps"`
}

// TaskCounts summarizes the tasks inside a project.
type TaskCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Completed int `json:"completed"`
}

// Project represents a container of tasks.
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Note           string          `json:"note,omitempty"`
	Status         string          `json:"status"`
	Flagged        bool            `json:"flagged"`
	Sequential     bool            `json:"sequential"`
	Folder         *string         `json:"folder"`
	FolderID       *string         `json:"folderId,omitempty"`
	DueDate        *Timestamp      `json:"dueDate"`
	DeferDate      *Timestamp      `json:"deferDate"`
	CompletionDate *Timestamp      `json:"completionDate"`
	LastReviewDate *Timestamp      `json:"lastReviewDate"`
	NextReviewDate *Timestamp      `json:"nextReviewDate"`
	ReviewInterval *ReviewInterval `json:"reviewInterval"`
	TaskCounts     TaskCounts      `json:"taskCounts"`
}

// NeedsReview reports whether the project's next review date has passed.
func (p Project) NeedsReview(now Timestamp) bool {
	if p.Status == ProjectStatusDone || p.Status == ProjectStatusDropped {
		return false
	}
	return p.NextReviewDate != nil && !p.NextReviewDate.After(now.Time)
}

// Tag is a named label that can be nested under a parent tag.
type Tag struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Parent             *string  `json:"parent"`
	Children           []string `json:"children"`
	AllowsNextAction   bool     `json:"allowsNextAction"`
	AvailableTaskCount int      `json:"availableTaskCount"`
}

// Folder groups projects and sub-folders.
type Folder struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	Depth    int      `json:"depth"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
	Projects []string `json:"projects"`
}

// Recurrence types reported in RecurrenceStatus.Type.
const (
	RecurrenceNone        = "non-recurring"
	RecurrenceNewInstance = "new-instance"
	RecurrenceRescheduled = "rescheduled"
)

// RecurrenceStatus is inferred on every read and never cached.
type RecurrenceStatus struct {
	IsRecurring       bool       `json:"isRecurring"`
	Type              string     `json:"type"`
	Frequency         string     `json:"frequency,omitempty"`
	ScheduleDeviation bool       `json:"scheduleDeviation"`
	NextExpectedDate  *Timestamp `json:"nextExpectedDate,omitempty"`
	Confidence        float64    `json:"confidence"`
	Source            string     `json:"source"`
}

// BulkError records a single failed id inside a bulk mutation.
type BulkError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult is the outcome of a multi-record mutation. Partial failure is not an error.
type BulkResult struct {
	Requested int         `json:"requested"`
	Succeeded []string    `json:"succeeded"`
	Errors    []BulkError `json:"errors"`
}
