package normalize

import (
	"fmt"
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// Decoded holds the records that survived normalization and how many were
// dropped for lacking an id.
type Decoded[T any] struct {
	Records []T
	Dropped int
	Scanned int
}

// CheckReported converts an error object emitted by a script into a Go error.
func CheckReported(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	msg, ok := m["error"].(string)
	if !ok || msg == "" {
		return nil
	}
	if String(m, "code") == "not_found" {
		return bridgeerr.New(bridgeerr.NotFound, msg).WithDetails(map[string]any{"id": String(m, "id")})
	}
	return bridgeerr.New(bridgeerr.ScriptReportedError, msg)
}

// envelope unwraps the script reply and returns the list stored under key.
// A bare array is accepted too.
func envelope(v any, key string) ([]Record, int, error) {
	if err := CheckReported(v); err != nil {
		return nil, 0, err
	}
	switch x := v.(type) {
	case []any:
		return records(x), 0, nil
	case map[string]any:
		list, ok := x[key]
		if !ok {
			return nil, 0, unexpected(v, "missing %q list", key)
		}
		return records(list), IntOr(x, "scanned", 0), nil
	case nil:
		return nil, 0, nil
	}
	return nil, 0, unexpected(v, "expected an object with %q", key)
}

// single unwraps {key: {...}} replies.
func single(v any, key string) (Record, error) {
	if err := CheckReported(v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, unexpected(v, "expected an object with %q", key)
	}
	rec := Object(m, key)
	if rec == nil {
		return nil, unexpected(v, "missing %q object", key)
	}
	return rec, nil
}

func unexpected(v any, format string, args ...any) error {
	return bridgeerr.Newf(bridgeerr.UnexpectedShape, "unexpected host reply: "+format, args...).
		WithDetails(map[string]any{"type": fmt.Sprintf("%T", v)})
}

func decodeAll[T any](v any, key string, one func(Record) (T, bool)) (Decoded[T], error) {
	recs, scanned, err := envelope(v, key)
	if err != nil {
		return Decoded[T]{}, err
	}
	out := Decoded[T]{Records: make([]T, 0, len(recs)), Scanned: scanned}
	for _, r := range recs {
		rec, ok := one(r)
		if !ok {
			out.Dropped++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// DecodeTasks normalizes a task list reply.
func DecodeTasks(v any) (Decoded[models.Task], error) {
	return decodeAll(v, "tasks", Task)
}

// DecodeTask normalizes a single-task reply.
func DecodeTask(v any) (models.Task, error) {
	rec, err := single(v, "task")
	if err != nil {
		return models.Task{}, err
	}
	t, ok := Task(rec)
	if !ok {
		return models.Task{}, unexpected(v, "task has no id")
	}
	return t, nil
}

// Task normalizes one task record. Tasks in the inbox never report a project.
func Task(m Record) (models.Task, bool) {
	id := strings.TrimSpace(String(m, "id"))
	if id == "" {
		return models.Task{}, false
	}
	t := models.Task{
		ID:               id,
		Name:             String(m, "name"),
		Note:             String(m, "note"),
		Completed:        Bool(m, "completed"),
		Flagged:          Bool(m, "flagged"),
		Dropped:          Bool(m, "dropped"),
		Blocked:          Bool(m, "blocked"),
		InInbox:          Bool(m, "inInbox"),
		Project:          OptString(m, "project"),
		ProjectID:        OptString(m, "projectId"),
		ParentID:         OptString(m, "parentId"),
		Tags:             StringSlice(m, "tags"),
		DueDate:          Time(m, "dueDate"),
		DeferDate:        Time(m, "deferDate"),
		PlannedDate:      Time(m, "plannedDate"),
		CompletionDate:   Time(m, "completionDate"),
		EstimatedMinutes: Int(m, "estimatedMinutes"),
		RepetitionRule:   Rule(Object(m, "repetitionRule")),
		Added:            Time(m, "added"),
		Modified:         Time(m, "modified"),
		DropDate:         Time(m, "dropDate"),
	}
	t.Available = BoolOr(m, "available", !t.Completed && !t.Dropped && !t.Blocked)
	if t.Completed || t.Dropped {
		t.Available = false
	}
	if t.InInbox {
		t.Project, t.ProjectID = nil, nil
	}
	return t, true
}

// Rule normalizes a repetition rule. Unit and steps come from the RRULE text
// when the record does not carry them.
func Rule(m Record) *models.RepetitionRule {
	if m == nil {
		return nil
	}
	r := &models.RepetitionRule{
		Unit:       models.NormalizeUnit(String(m, "unit")),
		Steps:      IntOr(m, "steps", 0),
		Anchor:     String(m, "anchor"),
		Method:     models.NormalizeMethod(String(m, "method")),
		RuleString: String(m, "ruleString"),
	}
	if r.Unit == "" && r.RuleString != "" {
		r.Unit, r.Steps = models.ParseRRule(r.RuleString)
	}
	if r.Unit == "" && r.RuleString == "" {
		return nil
	}
	return r
}

// DecodeProjects normalizes a project list reply.
func DecodeProjects(v any) (Decoded[models.Project], error) {
	return decodeAll(v, "projects", Project)
}

// DecodeProject normalizes a single-project reply.
func DecodeProject(v any) (models.Project, error) {
	rec, err := single(v, "project")
	if err != nil {
		return models.Project{}, err
	}
	p, ok := Project(rec)
	if !ok {
		return models.Project{}, unexpected(v, "project has no id")
	}
	return p, nil
}

// Project normalizes one project record.
func Project(m Record) (models.Project, bool) {
	id := strings.TrimSpace(String(m, "id"))
	if id == "" {
		return models.Project{}, false
	}
	p := models.Project{
		ID:             id,
		Name:           String(m, "name"),
		Note:           String(m, "note"),
		Status:         projectStatus(String(m, "status")),
		Flagged:        Bool(m, "flagged"),
		Sequential:     Bool(m, "sequential"),
		Folder:         OptString(m, "folder"),
		FolderID:       OptString(m, "folderId"),
		DueDate:        Time(m, "dueDate"),
		DeferDate:      Time(m, "deferDate"),
		CompletionDate: Time(m, "completionDate"),
		LastReviewDate: Time(m, "lastReviewDate"),
		NextReviewDate: Time(m, "nextReviewDate"),
	}
	if ri := Object(m, "reviewInterval"); ri != nil {
		p.ReviewInterval = &models.ReviewInterval{
			Unit:  models.NormalizeUnit(String(ri, "unit")),
			Steps: IntOr(ri, "steps", 1),
		}
	}
	if c := Object(m, "taskCounts"); c != nil {
		p.TaskCounts = models.TaskCounts{
			Total:     IntOr(c, "total", 0),
			Available: IntOr(c, "available", 0),
			Completed: IntOr(c, "completed", 0),
		}
	}
	return p, true
}

func projectStatus(s string) string {
	switch strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)) {
	case "onhold":
		return models.ProjectStatusOnHold
	case "dropped":
		return models.ProjectStatusDropped
	case "done", "completed":
		return models.ProjectStatusDone
	}
	return models.ProjectStatusActive
}

// DecodeTags normalizes a tag list reply.
func DecodeTags(v any) (Decoded[models.Tag], error) {
	return decodeAll(v, "tags", Tag)
}

// DecodeTag normalizes a single-tag reply.
func DecodeTag(v any) (models.Tag, error) {
	rec, err := single(v, "tag")
	if err != nil {
		return models.Tag{}, err
	}
	t, ok := Tag(rec)
	if !ok {
		return models.Tag{}, unexpected(v, "tag has no id")
	}
	return t, nil
}

// Tag normalizes one tag record.
func Tag(m Record) (models.Tag, bool) {
	id := strings.TrimSpace(String(m, "id"))
	if id == "" {
		return models.Tag{}, false
	}
	return models.Tag{
		ID:                 id,
		Name:               String(m, "name"),
		Parent:             OptString(m, "parent"),
		Children:           StringSlice(m, "children"),
		AllowsNextAction:   BoolOr(m, "allowsNextAction", true),
		AvailableTaskCount: IntOr(m, "availableTaskCount", 0),
	}, true
}

// DecodeFolders normalizes a folder list reply.
func DecodeFolders(v any) (Decoded[models.Folder], error) {
	return decodeAll(v, "folders", Folder)
}

// DecodeFolder normalizes a single-folder reply.
func DecodeFolder(v any) (models.Folder, error) {
	rec, err := single(v, "folder")
	if err != nil {
		return models.Folder{}, err
	}
	f, ok := Folder(rec)
	if !ok {
		return models.Folder{}, unexpected(v, "folder has no id")
	}
	return f, nil
}

// Folder normalizes one folder record.
func Folder(m Record) (models.Folder, bool) {
	id := strings.TrimSpace(String(m, "id"))
	if id == "" {
		return models.Folder{}, false
	}
	status := String(m, "status")
	if status != "dropped" {
		status = "active"
	}
	return models.Folder{
		ID:       id,
		Name:     String(m, "name"),
		Status:   status,
		Depth:    IntOr(m, "depth", 0),
		Parent:   OptString(m, "parent"),
		Children: StringSlice(m, "children"),
		Projects: StringSlice(m, "projects"),
	}, true
}

// DecodeBulk normalizes a bulk mutation reply.
func DecodeBulk(v any) (models.BulkResult, error) {
	if err := CheckReported(v); err != nil {
		return models.BulkResult{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return models.BulkResult{}, unexpected(v, "expected a bulk result object")
	}
	res := models.BulkResult{
		Succeeded: StringSlice(m, "succeeded"),
		Errors:    []models.BulkError{},
	}
	for _, e := range Objects(m, "errors") {
		res.Errors = append(res.Errors, models.BulkError{ID: String(e, "id"), Error: String(e, "error")})
	}
	res.Requested = IntOr(m, "requested", len(res.Succeeded)+len(res.Errors))
	return res, nil
}
