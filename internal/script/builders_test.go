package script

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// bridgeProgramOf decodes the program literal embedded in a bridge script.
func bridgeProgramOf(t *testing.T, s Script) string {
	t.Helper()
	if s.Strategy != Bridge {
		t.Fatalf("%s strategy = %v, want bridge", s.Name, s.Strategy)
	}
	_, rest, ok := strings.Cut(s.Source, "app.evaluateJavascript(")
	if !ok {
		t.Fatalf("%s has no evaluateJavascript call", s.Name)
	}
	lit, _, ok := strings.Cut(rest, ");\n})();")
	if !ok {
		t.Fatalf("%s wrapper is malformed", s.Name)
	}
	var program string
	if err := json.Unmarshal([]byte(lit), &program); err != nil {
		t.Fatalf("%s program literal does not decode: %v", s.Name, err)
	}
	return program
}

func TestBuildersLeaveNoPlaceholders(t *testing.T) {
	b := NewBuilder("")
	due, _ := models.ParseTimestamp("2025-06-01")
	build := map[string]func() (Script, error){
		"list":     func() (Script, error) { return b.ListTasks(models.TaskFilter{Flagged: models.Bool(true), DueBefore: &due, Tags: []string{"x"}}) },
		"get":      func() (Script, error) { return b.GetTask("abc") },
		"create":   func() (Script, error) { return b.CreateTask(models.TaskCreate{Name: "n", Tags: []string{"a"}}) },
		"update":   func() (Script, error) { return b.UpdateTask(models.TaskUpdate{ID: "abc", Name: models.String("m")}) },
		"complete": func() (Script, error) { return b.CompleteTask("abc") },
		"drop":     func() (Script, error) { return b.DropTask("abc", false) },
		"delete":   func() (Script, error) { return b.DeleteTask("abc") },
		"bulk":     func() (Script, error) { return b.BulkDeleteTasks([]string{"a", "b"}) },
		"move":     func() (Script, error) { return b.MoveTasks(models.TaskMove{IDs: []string{"a"}, ToInbox: true}) },
		"projects": func() (Script, error) { return b.ListProjects(models.ProjectFilter{NeedsReview: true}, true) },
		"project":  func() (Script, error) { return b.GetProject("p") },
		"pcreate":  func() (Script, error) { return b.CreateProject(models.ProjectCreate{Name: "p", FolderName: "Work"}) },
		"pdelete":  func() (Script, error) { return b.DeleteProject(models.ProjectDelete{ID: "p", TaskAction: "inbox"}) },
		"tags":     func() (Script, error) { return b.ListTags(models.TagFilter{}) },
		"tag":      func() (Script, error) { return b.ManageTag(models.TagOperation{Action: "nest", Name: "a", ParentName: "b"}) },
		"folders":  func() (Script, error) { return b.ListFolders() },
		"fcreate":  func() (Script, error) { return b.CreateFolder("f", "") },
		"overdue":  func() (Script, error) { return b.OverdueTasks(10) },
		"recur":    func() (Script, error) { return b.RecurringCandidates(false, true, 0) },
		"ping":     func() (Script, error) { return b.Ping() },
	}
	for name, fn := range build {
		t.Run(name, func(t *testing.T) {
			s, err := fn()
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			if ph := Placeholders(s.Source); len(ph) > 0 {
				t.Errorf("unreplaced placeholders %v", ph)
			}
			if !strings.Contains(s.Source, `Application("OmniFocus")`) {
				t.Errorf("source does not target the default application")
			}
			if s.Fallback != nil && s.Fallback.Strategy != Bridge {
				t.Errorf("fallback strategy = %v, want bridge", s.Fallback.Strategy)
			}
		})
	}
}

func TestStrategySelection(t *testing.T) {
	b := NewBuilder("OmniFocus")
	get, _ := b.GetTask("x")
	if get.Strategy != Direct || get.Fallback == nil || get.Mutates {
		t.Errorf("GetTask = %v fallback=%v mutates=%v, want direct read with fallback", get.Strategy, get.Fallback != nil, get.Mutates)
	}
	list, _ := b.ListTasks(models.TaskFilter{})
	if list.Strategy != Bridge || !list.Bulk || list.Mutates {
		t.Errorf("ListTasks = %v bulk=%v, want bridge bulk read", list.Strategy, list.Bulk)
	}
	bulk, _ := b.BulkDeleteTasks([]string{"a"})
	if !bulk.Mutates || !bulk.Bulk {
		t.Errorf("BulkDeleteTasks mutates=%v bulk=%v, want both", bulk.Mutates, bulk.Bulk)
	}
}

func TestListTasksCompilesOnlySetClauses(t *testing.T) {
	b := NewBuilder("")
	s, err := b.ListTasks(models.TaskFilter{Completed: models.Bool(false), Flagged: models.Bool(true)})
	if err != nil {
		t.Fatal(err)
	}
	program := bridgeProgramOf(t, s)
	for _, want := range []string{"o.completed === F.completed", "o.flagged === F.flagged", `var F = {"completed":false,"flagged":true};`} {
		if !strings.Contains(program, want) {
			t.Errorf("program missing %q", want)
		}
	}
	for _, unwanted := range []string{"tagHits(o.tags) >", "F.search", "B.dueBefore", "function jxaTask"} {
		if strings.Contains(program, unwanted) {
			t.Errorf("program unexpectedly contains %q", unwanted)
		}
	}
}

func TestDeleteProjectDropsInsteadOfRemoving(t *testing.T) {
	b := NewBuilder("")
	for _, action := range []string{"", models.ProjectTasksKeep, models.ProjectTasksDrop, models.ProjectTasksInbox} {
		t.Run("action="+action, func(t *testing.T) {
			s, err := b.DeleteProject(models.ProjectDelete{ID: "p1", TaskAction: action})
			if err != nil {
				t.Fatal(err)
			}
			program := bridgeProgramOf(t, s)
			if strings.Contains(program, "deleteObject(") {
				t.Errorf("program removes the project:\n%s", program)
			}
			if !strings.Contains(program, "p.status = Project.Status.Dropped;") {
				t.Errorf("program does not drop the project")
			}
			if !strings.Contains(program, "status: 'dropped'") {
				t.Errorf("reply does not report the dropped status")
			}
		})
	}
}

func TestNeedsReviewClauseMatchesOnHold(t *testing.T) {
	s, err := NewBuilder("").ListProjects(models.ProjectFilter{
		Statuses:    []string{models.ProjectStatusActive, models.ProjectStatusOnHold},
		NeedsReview: true,
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	program := bridgeProgramOf(t, s)
	if strings.Contains(program, "o.status === 'active'") {
		t.Errorf("review clause excludes on-hold projects:\n%s", program)
	}
	if !strings.Contains(program, "o.status !== 'done' && o.status !== 'dropped'") {
		t.Errorf("review clause does not exclude finished projects")
	}
}

func TestInboxScanIncludesSubtasks(t *testing.T) {
	s, err := NewBuilder("").ListTasks(models.TaskFilter{InInbox: models.Bool(true)})
	if err != nil {
		t.Fatal(err)
	}
	program := bridgeProgramOf(t, s)
	if strings.Contains(program, "source = inbox;") {
		t.Errorf("inbox scan is limited to top-level tasks")
	}
	if !strings.Contains(program, "source = flattenedTasks.filter(") {
		t.Errorf("inbox scan does not walk all tasks:\n%s", program)
	}
}

func TestHelpersEmbeddedOnce(t *testing.T) {
	s, err := NewBuilder("").CreateTask(models.TaskCreate{Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	program := bridgeProgramOf(t, s)
	if n := strings.Count(program, "function safeGet("); n != 1 {
		t.Errorf("safeGet defined %d times, want 1", n)
	}
	if strings.Contains(program, "function serializeFolder(") {
		t.Errorf("unrelated helper embedded")
	}
}

func TestCreateTaskNameIsInert(t *testing.T) {
	name := `$ID$"); deleteObject(x); ("`
	s, err := NewBuilder("").CreateTask(models.TaskCreate{Name: name})
	if err != nil {
		t.Fatal(err)
	}
	program := bridgeProgramOf(t, s)
	if !strings.Contains(program, `"name":"\u0024ID\u0024\"); deleteObject(x); (\""`) {
		t.Errorf("name not embedded as an escaped literal:\n%s", program)
	}
}

func TestBuilderValidation(t *testing.T) {
	b := NewBuilder("")
	a, _ := models.ParseTimestamp("2025-06-01")
	c, _ := models.ParseTimestamp("2025-07-01")
	tests := []struct {
		name string
		fn   func() (Script, error)
		code string
	}{
		{"create without name", func() (Script, error) { return b.CreateTask(models.TaskCreate{}) }, bridgeerr.MissingRequiredField},
		{"create two targets", func() (Script, error) {
			return b.CreateTask(models.TaskCreate{Name: "x", ProjectID: "p", ParentTaskID: "t"})
		}, bridgeerr.ConflictingTargetSpecified},
		{"update without id", func() (Script, error) { return b.UpdateTask(models.TaskUpdate{Name: models.String("x")}) }, bridgeerr.MissingRequiredField},
		{"update nothing", func() (Script, error) { return b.UpdateTask(models.TaskUpdate{ID: "x"}) }, bridgeerr.MissingRequiredField},
		{"bulk delete empty", func() (Script, error) { return b.BulkDeleteTasks([]string{" ", ""}) }, bridgeerr.MissingRequiredField},
		{"move no target", func() (Script, error) { return b.MoveTasks(models.TaskMove{IDs: []string{"a"}}) }, bridgeerr.ConflictingTargetSpecified},
		{"move two targets", func() (Script, error) {
			return b.MoveTasks(models.TaskMove{IDs: []string{"a"}, ToInbox: true, ToProjectID: "p"})
		}, bridgeerr.ConflictingTargetSpecified},
		{"bad tag mode", func() (Script, error) { return b.ListTasks(models.TaskFilter{Tags: []string{"a"}, TagMode: "XOR"}) }, bridgeerr.UnsupportedFilterCombination},
		{"overdue and completed", func() (Script, error) {
			return b.ListTasks(models.TaskFilter{Overdue: true, Completed: models.Bool(true)})
		}, bridgeerr.UnsupportedFilterCombination},
		{"inverted window", func() (Script, error) {
			return b.ListTasks(models.TaskFilter{DueBefore: &a, DueAfter: &c})
		}, bridgeerr.UnsupportedFilterCombination},
		{"bad project status", func() (Script, error) {
			return b.ListProjects(models.ProjectFilter{Statuses: []string{"paused"}}, false)
		}, bridgeerr.InvalidValue},
		{"bad task action", func() (Script, error) {
			return b.DeleteProject(models.ProjectDelete{ID: "p", TaskAction: "archive"})
		}, bridgeerr.InvalidValue},
		{"rename without new name", func() (Script, error) {
			return b.ManageTag(models.TagOperation{Action: "rename", Name: "a"})
		}, bridgeerr.MissingRequiredField},
		{"bad repetition", func() (Script, error) {
			return b.CreateTask(models.TaskCreate{Name: "x", RepetitionRule: &models.RepetitionRule{Unit: "fortnights", Steps: 1}})
		}, bridgeerr.InvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			if !bridgeerr.HasCode(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
			if !bridgeerr.IsInput(err) {
				t.Errorf("error kind is not input: %v", err)
			}
		})
	}
}
