package models

// TaskCreate holds the fields for a new task. At most one of ProjectID and
// ParentTaskID may be set; neither means the inbox.
type TaskCreate struct {
	Name             string          `json:"name" validate:"required"`
	Note             string          `json:"note,omitempty"`
	ProjectID        string          `json:"projectId,omitempty"`
	ParentTaskID     string          `json:"parentTaskId,omitempty"`
	Flagged          bool            `json:"flagged,omitempty"`
	DueDate          *Timestamp      `json:"dueDate,omitempty"`
	DeferDate        *Timestamp      `json:"deferDate,omitempty"`
	PlannedDate      *Timestamp      `json:"plannedDate,omitempty"`
	EstimatedMinutes *int            `json:"estimatedMinutes,omitempty" validate:"omitempty,gte=0"`
	Tags             []string        `json:"tags,omitempty" validate:"dive,required"`
	RepetitionRule   *RepetitionRule `json:"repetitionRule,omitempty"`
}

// DateChange is a partial-update value for a date field: Clear removes the date,
// otherwise Value is set.
type DateChange struct {
	Value *Timestamp
	Clear bool
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	ID               string          `validate:"required"`
	Name             *string         `validate:"omitempty,min=1"`
	Note             *string
	Flagged          *bool
	DueDate          *DateChange
	DeferDate        *DateChange
	PlannedDate      *DateChange
	EstimatedMinutes *int `validate:"omitempty,gte=0"`
	ClearEstimate    bool
	Tags             []string
	ReplaceTags      bool
	AddTags          []string
	RemoveTags       []string
	RepetitionRule   *RepetitionRule
	ClearRepetition  bool
}

// IsEmpty reports whether the update would change nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Name == nil && u.Note == nil && u.Flagged == nil &&
		u.DueDate == nil && u.DeferDate == nil && u.PlannedDate == nil &&
		u.EstimatedMinutes == nil && !u.ClearEstimate &&
		!u.ReplaceTags && len(u.AddTags) == 0 && len(u.RemoveTags) == 0 &&
		u.RepetitionRule == nil && !u.ClearRepetition
}

// TaskMove relocates tasks. Exactly one target must be set.
type TaskMove struct {
	IDs            []string `validate:"required,min=1,dive,required"`
	ToInbox        bool
	ToProjectID    string
	ToParentTaskID string
}

// ProjectCreate holds the fields for a new project.
type ProjectCreate struct {
	Name           string          `json:"name" validate:"required"`
	Note           string          `json:"note,omitempty"`
	FolderName     string          `json:"folder,omitempty"`
	Status         string          `json:"status,omitempty" validate:"omitempty,oneof=active onHold dropped done"`
	Flagged        bool            `json:"flagged,omitempty"`
	Sequential     bool            `json:"sequential,omitempty"`
	DueDate        *Timestamp      `json:"dueDate,omitempty"`
	DeferDate      *Timestamp      `json:"deferDate,omitempty"`
	ReviewInterval *ReviewInterval `json:"reviewInterval,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
}

// ProjectUpdate is a partial project update.
type ProjectUpdate struct {
	ID             string  `validate:"required"`
	Name           *string `validate:"omitempty,min=1"`
	Note           *string
	Status         *string `validate:"omitempty,oneof=active onHold dropped done"`
	Flagged        *bool
	Sequential     *bool
	FolderName     *string
	DueDate        *DateChange
	DeferDate      *DateChange
	ReviewInterval *ReviewInterval
	MarkReviewed   bool
}

// IsEmpty reports whether the update would change nothing.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Note == nil && u.Status == nil && u.Flagged == nil &&
		u.Sequential == nil && u.FolderName == nil && u.DueDate == nil &&
		u.DeferDate == nil && u.ReviewInterval == nil && !u.MarkReviewed
}

// What happens to a deleted project's open tasks.
const (
	ProjectTasksKeep  = "keep"
	ProjectTasksDrop  = "drop"
	ProjectTasksInbox = "inbox"
)

// ProjectDelete drops a project and optionally its open tasks.
type ProjectDelete struct {
	ID         string `validate:"required"`
	TaskAction string `validate:"omitempty,oneof=keep drop inbox"`
}

// Tag operations accepted by manage_tag.
const (
	TagActionCreate    = "create"
	TagActionRename    = "rename"
	TagActionDelete    = "delete"
	TagActionSetParent = "nest"
)

// TagOperation describes one tag mutation.
type TagOperation struct {
	Action     string `validate:"required,oneof=create rename delete nest"`
	Name       string `validate:"required"`
	NewName    string
	ParentName string
}
