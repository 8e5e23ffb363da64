package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/api"
	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/config"
	"github.com/kutbudev/ofocus-cli/internal/executor"
	"github.com/kutbudev/ofocus-cli/internal/script"
)

type fakeRunner struct {
	mu      sync.Mutex
	replies map[string]string
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, s script.Script) (*executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s.Name)
	raw, ok := f.replies[s.Name]
	if !ok {
		return nil, bridgeerr.Newf(bridgeerr.HostProcessError, "no reply for %s", s.Name)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		panic(err)
	}
	return &executor.Result{Script: s.Name, Strategy: s.Strategy, State: executor.StateSucceeded, Value: v}, nil
}

const tasksReply = `{"tasks": [
 {"id":"t1","name":"Pay rent","flagged":true,"dueDate":"2025-06-01 09:00","project":"Home","projectId":"p1"},
 {"id":"t2","name":"Call dentist","dueDate":"2025-06-12"},
 {"id":"t3","name":"Draft memo","flagged":true,"project":"Work","projectId":"p2"},
 {"id":"t4","name":"Old thing","completed":true,"flagged":true},
 {"id":"t5","name":"Read book","flagged":true,"inInbox":true}
]}`

type harness struct {
	runner *fakeRunner
	out    *bytes.Buffer
	asked  []string
	answer bool
}

func newHarness(replies map[string]string) *harness {
	return &harness{runner: &fakeRunner{replies: replies}, out: &bytes.Buffer{}}
}

// run executes one command line against the fake host.
func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	app := NewApp("test")
	app.Writer = h.out
	app.ErrWriter = &bytes.Buffer{}
	app.Metadata[runtimeKey] = &Runtime{
		Config: &config.Config{Output: config.OutputConfig{Format: "text", Color: false}},
		Client: api.NewClient(api.Options{
			Runner: h.runner,
			Now:    func() time.Time { return time.Date(2025, 6, 11, 15, 4, 0, 0, time.Local) },
		}),
		Confirm: func(msg string) (bool, error) {
			h.asked = append(h.asked, msg)
			return h.answer, nil
		},
	}
	return app.Run(append([]string{"ofocus"}, args...))
}

func TestTaskListJSON(t *testing.T) {
	h := newHarness(map[string]string{"list_tasks": tasksReply})
	if err := h.run(t, "task", "list", "--flagged", "--completed=false", "--format", "json", "--fields", "id,name"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(h.out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, h.out)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r["id"].(string))
		if len(r) != 2 {
			t.Errorf("record has fields %v, want id and name", r)
		}
	}
	if strings.Join(ids, ",") != "t1,t3,t5" {
		t.Errorf("ids = %v", ids)
	}
}

func TestTaskListQuietSorted(t *testing.T) {
	h := newHarness(map[string]string{"list_tasks": tasksReply})
	if err := h.run(t, "task", "list", "--quiet", "--sort", "name:desc", "--limit", "2"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := h.out.String(); got != "t5\nt1\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTaskDeleteConfirmation(t *testing.T) {
	bulk := `{"requested":3,"succeeded":["A","C"],"errors":[{"id":"B","error":"task not found: B"}]}`
	tests := []struct {
		name      string
		args      []string
		answer    bool
		wantAsk   bool
		wantCalls int
		wantOut   string
	}{
		{"declined", []string{"task", "delete", "A", "B", "C"}, false, true, 0, ""},
		{"accepted", []string{"task", "delete", "A", "B", "C"}, true, true, 1, "Deleted 2 of 3"},
		{"yes flag", []string{"task", "delete", "--yes", "A", "B", "C"}, false, false, 1, "B: task not found: B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(map[string]string{"bulk_delete_tasks": bulk})
			h.answer = tt.answer
			if err := h.run(t, tt.args...); err != nil {
				t.Fatalf("run: %v", err)
			}
			if (len(h.asked) > 0) != tt.wantAsk {
				t.Errorf("asked = %v, want asked %v", h.asked, tt.wantAsk)
			}
			if len(h.runner.calls) != tt.wantCalls {
				t.Errorf("host calls = %v, want %d", h.runner.calls, tt.wantCalls)
			}
			if !strings.Contains(h.out.String(), tt.wantOut) {
				t.Errorf("output = %q, want %q", h.out, tt.wantOut)
			}
		})
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"task get without id", []string{"task", "get"}, "task ID is required"},
		{"project create without name", []string{"project", "create"}, "project name is required"},
		{"bad format", []string{"task", "list", "--format", "yaml"}, "unknown output format"},
		{"bad date", []string{"task", "create", "--due", "someday", "x"}, "invalid --due"},
		{"tag rename needs two", []string{"tag", "rename", "a"}, "tag name and new name are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(map[string]string{"list_tasks": tasksReply})
			err := h.run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestTodaySections(t *testing.T) {
	h := newHarness(map[string]string{"list_tasks": tasksReply})
	if err := h.run(t, "today"); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"Overdue (1)", "Due soon (1)", "Flagged (3)", "Pay rent", "Call dentist"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMcpConfig(t *testing.T) {
	tests := []struct {
		client string
		want   string
	}{
		{"generic", `"command": "ofocus"`},
		{"codex", "[mcp_servers.ofocus]"},
	}
	for _, tt := range tests {
		t.Run(tt.client, func(t *testing.T) {
			h := newHarness(nil)
			if err := h.run(t, "mcp", "config", "--client", tt.client); err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(h.out.String(), tt.want) {
				t.Errorf("output = %s", h.out)
			}
		})
	}
}

func TestStatusJSON(t *testing.T) {
	h := newHarness(map[string]string{"ping": `{"ok":true,"name":"OmniFocus","version":"4.5","strategy":"direct"}`})
	if err := h.run(t, "status", "-o", "json"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var st map[string]any
	if err := json.Unmarshal(h.out.Bytes(), &st); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, h.out)
	}
	if st["version"] != "4.5" || st["ok"] != true {
		t.Errorf("status = %v", st)
	}
}

func TestProjectDeleteResolvesName(t *testing.T) {
	h := newHarness(map[string]string{
		"list_projects":  `{"projects":[{"id":"p1","name":"Home","status":"active"},{"id":"p2","name":"Work","status":"active"}]}`,
		"delete_project": `{"id":"p2","name":"Work","status":"dropped","taskAction":"inbox","tasksAffected":2}`,
	})
	if err := h.run(t, "project", "delete", "--tasks", "inbox", "--yes", "work"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.asked) != 0 {
		t.Errorf("--yes still asked %v", h.asked)
	}
	if got := strings.Join(h.runner.calls, ","); got != "list_projects,delete_project" {
		t.Errorf("calls = %s", got)
	}
	if want := "Project 'Work' dropped (2 open task(s): inbox)"; !strings.Contains(h.out.String(), want) {
		t.Errorf("output = %q, want %q", h.out, want)
	}
}

func TestTagCommands(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		reply string
		want  string
	}{
		{"rename", []string{"tag", "rename", "errand", "Errands"}, `{"tag":{"id":"g1","name":"Errands"}}`, "Tag 'Errands' updated"},
		{"create existing", []string{"tag", "create", "Home"}, `{"tag":{"id":"g2","name":"Home"},"created":false}`, "Tag 'Home' already exists"},
		{"create new", []string{"tag", "create", "Phone"}, `{"tag":{"id":"g3","name":"Phone"},"created":true}`, "Tag 'Phone' created"},
		{"delete", []string{"tag", "delete", "--yes", "Old"}, `{"deleted":"g4"}`, "Tag 'Old' deleted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(map[string]string{"manage_tag_" + tt.args[1]: tt.reply})
			if err := h.run(t, tt.args...); err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(h.out.String(), tt.want) {
				t.Errorf("output = %q, want %q", h.out, tt.want)
			}
		})
	}
}
