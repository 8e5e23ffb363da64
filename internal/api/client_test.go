package api

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/cache"
	"github.com/kutbudev/ofocus-cli/internal/executor"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/script"
)

var testNow = time.Date(2025, 6, 11, 15, 4, 0, 0, time.Local)

type reply struct {
	json string
	err  error
}

// fakeRunner answers scripts by name, or by name and strategy when a
// "name/strategy" entry exists.
type fakeRunner struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []string
	sources map[string]string
}

func (f *fakeRunner) Run(_ context.Context, s script.Script) (*executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := s.Name + "/" + s.Strategy.String()
	f.calls = append(f.calls, key)
	if f.sources == nil {
		f.sources = map[string]string{}
	}
	f.sources[s.Name] = s.Source
	r, ok := f.replies[key]
	if !ok {
		r, ok = f.replies[s.Name]
	}
	if !ok {
		return nil, bridgeerr.Newf(bridgeerr.HostProcessError, "no reply for %s", key)
	}
	if r.err != nil {
		return nil, r.err
	}
	var v any
	if err := json.Unmarshal([]byte(r.json), &v); err != nil {
		panic(err)
	}
	return &executor.Result{Script: s.Name, Strategy: s.Strategy, State: executor.StateSucceeded, Value: v}, nil
}

func (f *fakeRunner) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, replies map[string]reply, store *cache.Store) (*Client, *fakeRunner) {
	t.Helper()
	r := &fakeRunner{replies: replies}
	c := NewClient(Options{
		Runner: r,
		Cache:  store,
		TTL:    CacheTTL{Projects: time.Minute, Tags: time.Minute, Folders: time.Minute},
		Now:    func() time.Time { return testNow },
	})
	return c, r
}

const tenTasks = `{"tasks": [
 {"id":"t1","name":"Pay rent","flagged":true,"dueDate":"2025-06-01 09:00","tags":["home"],"project":"Home","projectId":"p1"},
 {"id":"t2","name":"Call dentist","flagged":false,"dueDate":"2025-06-12","tags":[]},
 {"id":"t3","name":"Draft memo","flagged":true,"tags":["work"],"project":"Work","projectId":"p2"},
 {"id":"t4","name":"Old thing","completed":true,"flagged":true,"completionDate":"2025-06-10 08:00"},
 {"id":"t5","name":"Read book","flagged":true,"inInbox":true,"project":"Ghost","projectId":"px"},
 {"id":"t6","name":"Plan trip","tags":["home"]},
 {"id":"t7","name":"Dropped idea","dropped":true},
 {"id":"t8","name":"Water plants","dueDate":"2025-05-30"},
 {"id":"t9","name":"File taxes","completed":true,"completionDate":"2025-06-11 10:00"},
 {"id":"t10","name":"Sort photos"}
], "scanned": 10}`

func TestListTasksRechecksFilter(t *testing.T) {
	c, _ := newTestClient(t, map[string]reply{"list_tasks": {json: tenTasks}}, nil)

	res, err := c.ListTasks(context.Background(), models.TaskFilter{
		Completed: models.Bool(false),
		Flagged:   models.Bool(true),
	})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	var ids []string
	for _, tk := range res.Items {
		ids = append(ids, tk.ID)
		if tk.Recurrence == nil {
			t.Errorf("task %s has no recurrence status", tk.ID)
		}
	}
	want := []string{"t1", "t3", "t5"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if res.Meta.Scanned != 10 || res.Meta.Filtered != 7 {
		t.Errorf("meta = %+v", res.Meta)
	}
	if res.Items[2].Project != nil {
		t.Errorf("inbox task kept project %q", *res.Items[2].Project)
	}
}

func TestListTasksDueBeforeIsStrict(t *testing.T) {
	fixture := `{"tasks":[
	 {"id":"a","name":"on bound","dueDate":"2025-06-01"},
	 {"id":"b","name":"before","dueDate":"2025-05-31 23:59"},
	 {"id":"c","name":"no due"}]}`
	c, _ := newTestClient(t, map[string]reply{"list_tasks": {json: fixture}}, nil)
	bound, _ := models.ParseTimestamp("2025-06-01")

	res, err := c.ListTasks(context.Background(), models.TaskFilter{DueBefore: &bound})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "b" {
		t.Fatalf("got %+v, want only b", res.Items)
	}
}

func TestListTasksLimit(t *testing.T) {
	c, _ := newTestClient(t, map[string]reply{"list_tasks": {json: tenTasks}}, nil)
	res, err := c.ListTasks(context.Background(), models.TaskFilter{Limit: 4})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(res.Items) != 4 {
		t.Errorf("len = %d, want 4", len(res.Items))
	}
}

func TestBulkDeletePartialFailure(t *testing.T) {
	c, r := newTestClient(t, map[string]reply{
		"bulk_delete_tasks": {json: `{"requested":3,"succeeded":["A","C"],"errors":[{"id":"B","error":"task not found: B"}]}`},
	}, nil)

	res, err := c.BulkDeleteTasks(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("BulkDeleteTasks: %v", err)
	}
	if res.Requested != 3 || len(res.Succeeded) != 2 || len(res.Errors) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Errors[0].ID != "B" {
		t.Errorf("error id = %q, want B", res.Errors[0].ID)
	}
	if r.count("bulk_delete_tasks") != 1 {
		t.Errorf("calls = %v", r.calls)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	c, _ := newTestClient(t, map[string]reply{
		"get_task": {json: `{"error":"task not found: zz","code":"not_found","id":"zz"}`},
	}, nil)
	_, err := c.GetTask(context.Background(), "zz")
	if !bridgeerr.HasCode(err, bridgeerr.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

const weeklyRule = `"repetitionRule":{"ruleString":"FREQ=WEEKLY","method":"fixed"}`

func TestUndatedWeeklyTaskAddedTenDaysAgoDeviates(t *testing.T) {
	want := func(t *testing.T, task models.Task) {
		t.Helper()
		st := task.Recurrence
		if st == nil || st.Type != models.RecurrenceRescheduled || !st.ScheduleDeviation {
			t.Fatalf("recurrence = %+v, want rescheduled with deviation", st)
		}
	}

	t.Run("list", func(t *testing.T) {
		c, r := newTestClient(t, map[string]reply{
			"list_tasks": {json: `{"tasks":[{"id":"w1","name":"Water plants","added":"2025-06-01 09:00",` + weeklyRule + `}]}`},
		}, nil)
		res, err := c.ListTasks(context.Background(), models.TaskFilter{})
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(res.Items) != 1 {
			t.Fatalf("items = %+v", res.Items)
		}
		want(t, res.Items[0])
		if !strings.Contains(r.sources["list_tasks"], "if (details || o.repetitionRule)") {
			t.Errorf("list script does not read the added date for repeating tasks")
		}
	})

	t.Run("get rereads through the bridge", func(t *testing.T) {
		c, r := newTestClient(t, map[string]reply{
			"get_task/direct": {json: `{"task":{"id":"w1","name":"Water plants",` + weeklyRule + `}}`},
			"get_task/bridge": {json: `{"task":{"id":"w1","name":"Water plants","added":"2025-06-01 09:00",` + weeklyRule + `}}`},
		}, nil)
		task, err := c.GetTask(context.Background(), "w1")
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		want(t, *task)
		if got := strings.Join(r.calls, ","); got != "get_task/direct,get_task/bridge" {
			t.Errorf("calls = %s", got)
		}
	})

	t.Run("get with added from the direct path", func(t *testing.T) {
		c, r := newTestClient(t, map[string]reply{
			"get_task/direct": {json: `{"task":{"id":"w1","name":"Water plants","added":"2025-06-01 09:00",` + weeklyRule + `}}`},
		}, nil)
		task, err := c.GetTask(context.Background(), "w1")
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		want(t, *task)
		if len(r.calls) != 1 {
			t.Errorf("calls = %v, want one", r.calls)
		}
	})
}

func TestFallbackRerunsAlternateScript(t *testing.T) {
	tests := []struct {
		name      string
		directErr error
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "parameter is missing",
			directErr: bridgeerr.New(bridgeerr.HostProcessError, "osascript exited with status 1").WithStderr("execution error: Error: parameter is missing (-1701)"),
			wantCalls: 2,
		},
		{
			name:      "unrelated host error",
			directErr: bridgeerr.New(bridgeerr.HostProcessError, "osascript exited with status 1").WithStderr("syntax error"),
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "timeout",
			directErr: bridgeerr.New(bridgeerr.ExecutionTimeout, "parameter is missing"),
			wantErr:   true,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, r := newTestClient(t, map[string]reply{
				"ping/direct": {err: tt.directErr},
				"ping/bridge": {json: `{"ok":true,"name":"OmniFocus","version":"4.5","strategy":"bridge"}`},
			}, nil)
			st, err := c.Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (st.Version != "4.5" || !st.OK) {
				t.Errorf("status = %+v", st)
			}
			if got := r.count("ping"); got != tt.wantCalls {
				t.Errorf("calls = %v, want %d", r.calls, tt.wantCalls)
			}
		})
	}
}

func TestInputValidation(t *testing.T) {
	neg := -5
	tests := []struct {
		name string
		call func(*Client) error
		code string
	}{
		{"create without name", func(c *Client) error {
			_, err := c.CreateTask(context.Background(), models.TaskCreate{})
			return err
		}, bridgeerr.MissingRequiredField},
		{"negative estimate", func(c *Client) error {
			_, err := c.CreateTask(context.Background(), models.TaskCreate{Name: "x", EstimatedMinutes: &neg})
			return err
		}, bridgeerr.InvalidValue},
		{"project and parent", func(c *Client) error {
			_, err := c.CreateTask(context.Background(), models.TaskCreate{Name: "x", ProjectID: "p", ParentTaskID: "t"})
			return err
		}, bridgeerr.ConflictingTargetSpecified},
		{"bad rule", func(c *Client) error {
			_, err := c.CreateTask(context.Background(), models.TaskCreate{Name: "x", RepetitionRule: &models.RepetitionRule{Unit: "fortnight", Steps: 1}})
			return err
		}, bridgeerr.InvalidValue},
		{"empty update", func(c *Client) error {
			_, err := c.UpdateTask(context.Background(), models.TaskUpdate{ID: "t1"})
			return err
		}, bridgeerr.MissingRequiredField},
		{"update without id", func(c *Client) error {
			_, err := c.UpdateTask(context.Background(), models.TaskUpdate{Flagged: models.Bool(true)})
			return err
		}, bridgeerr.MissingRequiredField},
		{"bad project status", func(c *Client) error {
			_, err := c.CreateProject(context.Background(), models.ProjectCreate{Name: "x", Status: "paused"})
			return err
		}, bridgeerr.InvalidValue},
		{"bad review interval", func(c *Client) error {
			_, err := c.CreateProject(context.Background(), models.ProjectCreate{Name: "x", ReviewInterval: &models.ReviewInterval{Unit: "hours", Steps: 2}})
			return err
		}, bridgeerr.InvalidValue},
		{"unknown tag action", func(c *Client) error {
			_, err := c.ManageTag(context.Background(), models.TagOperation{Action: "merge", Name: "x"})
			return err
		}, bridgeerr.InvalidValue},
		{"move without ids", func(c *Client) error {
			_, err := c.MoveTasks(context.Background(), models.TaskMove{ToInbox: true})
			return err
		}, bridgeerr.MissingRequiredField},
		{"productivity window", func(c *Client) error {
			_, err := c.ProductivityStats(context.Background(), 0)
			return err
		}, bridgeerr.InvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, r := newTestClient(t, nil, nil)
			err := tt.call(c)
			if !bridgeerr.HasCode(err, tt.code) {
				t.Fatalf("err = %v, want code %s", err, tt.code)
			}
			if len(r.calls) != 0 {
				t.Errorf("host was called: %v", r.calls)
			}
		})
	}
}

const projectsReply = `{"projects":[
 {"id":"p1","name":"Home","status":"active","nextReviewDate":"2025-06-01"},
 {"id":"p2","name":"Work","status":"onHold","nextReviewDate":"2025-07-01"},
 {"id":"p3","name":"Old","status":"done"}
], "scanned": 3}`

func TestListProjectsCache(t *testing.T) {
	store := cache.New(t.TempDir())
	c, r := newTestClient(t, map[string]reply{
		"list_projects":  {json: projectsReply},
		"create_project": {json: `{"project":{"id":"p4","name":"New","status":"active"}}`},
	}, store)
	ctx := context.Background()
	active := models.ProjectFilter{Statuses: []string{models.ProjectStatusActive}}

	first, err := c.ListProjects(ctx, active, false)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if first.Meta.FromCache || len(first.Items) != 1 {
		t.Fatalf("first = %+v", first)
	}
	second, err := c.ListProjects(ctx, models.ProjectFilter{}, false)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if !second.Meta.FromCache || len(second.Items) != 3 {
		t.Fatalf("second = %+v", second)
	}
	if n := r.count("list_projects"); n != 1 {
		t.Fatalf("list_projects ran %d times, want 1", n)
	}

	if _, err := c.CreateProject(ctx, models.ProjectCreate{Name: "New"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	third, err := c.ListProjects(ctx, models.ProjectFilter{}, false)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if third.Meta.FromCache {
		t.Error("list served from cache after a write")
	}
	if n := r.count("list_projects"); n != 2 {
		t.Errorf("list_projects ran %d times, want 2", n)
	}
}

func TestReviewView(t *testing.T) {
	c, _ := newTestClient(t, map[string]reply{"list_projects": {json: projectsReply}}, nil)
	res, err := c.Review(context.Background(), 0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "p1" {
		t.Fatalf("items = %+v, want p1", res.Items)
	}
}

func TestReviewIncludesOnHoldAndSortsBeforeLimit(t *testing.T) {
	const overdueReviews = `{"projects":[
 {"id":"a1","name":"Garden","status":"active","nextReviewDate":"2025-06-05"},
 {"id":"h1","name":"Novel","status":"onHold","nextReviewDate":"2025-05-20"},
 {"id":"a3","name":"Taxes","status":"active","nextReviewDate":"2025-06-10"},
 {"id":"a2","name":"Car","status":"active","nextReviewDate":"2025-05-01"}
], "scanned": 4}`
	c, r := newTestClient(t, map[string]reply{"list_projects": {json: overdueReviews}}, nil)
	res, err := c.Review(context.Background(), 2)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	var ids []string
	for _, p := range res.Items {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "a2,h1" {
		t.Errorf("ids = %v, want [a2 h1]", ids)
	}
	src := r.sources["list_projects"]
	if strings.Contains(src, "o.status === 'active'") {
		t.Errorf("host review clause still requires active status")
	}
	if strings.Contains(src, "LIMIT = 2") {
		t.Errorf("limit reached the host before sorting")
	}
}

func TestTodaysAgendaMergesWithoutDuplicates(t *testing.T) {
	c, r := newTestClient(t, map[string]reply{"list_tasks": {json: tenTasks}}, nil)
	a, err := c.TodaysAgenda(context.Background(), 0)
	if err != nil {
		t.Fatalf("TodaysAgenda: %v", err)
	}
	if r.count("list_tasks") != 3 {
		t.Errorf("list_tasks calls = %v", r.calls)
	}
	ids := func(ts []models.Task) []string {
		out := []string{}
		for _, tk := range ts {
			out = append(out, tk.ID)
		}
		return out
	}
	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"overdue", ids(a.Overdue), []string{"t1", "t8"}},
		{"due soon", ids(a.DueSoon), []string{"t2"}},
		{"flagged", ids(a.Flagged), []string{"t1", "t3", "t5"}},
		{"merged", ids(a.Tasks), []string{"t1", "t8", "t2", "t3", "t5"}},
	}
	for _, ch := range checks {
		if len(ch.got) != len(ch.want) {
			t.Errorf("%s = %v, want %v", ch.name, ch.got, ch.want)
			continue
		}
		for i := range ch.want {
			if ch.got[i] != ch.want[i] {
				t.Errorf("%s = %v, want %v", ch.name, ch.got, ch.want)
				break
			}
		}
	}
}

func TestAnalyzeOverdue(t *testing.T) {
	c, _ := newTestClient(t, map[string]reply{"overdue_tasks": {json: `{"tasks":[
	 {"id":"a","name":"A","dueDate":"2025-06-08","project":"Home","projectId":"p1","tags":["errand"]},
	 {"id":"b","name":"B","dueDate":"2025-06-01","tags":["errand","phone"]},
	 {"id":"c","name":"C","dueDate":"2025-06-10","project":"Home","projectId":"p1"}
	]}`}}, nil)
	r, err := c.AnalyzeOverdue(context.Background(), 0)
	if err != nil {
		t.Fatalf("AnalyzeOverdue: %v", err)
	}
	if r.Total != 3 || r.ByProject["Home"] != 2 || r.ByProject[NoProject] != 1 {
		t.Errorf("by project = %v", r.ByProject)
	}
	if r.ByTag["errand"] != 2 || r.ByTag["phone"] != 1 || r.ByTag[NoTag] != 1 {
		t.Errorf("by tag = %v", r.ByTag)
	}
	if r.OldestDays != 10 {
		t.Errorf("oldest = %d, want 10", r.OldestDays)
	}
	if r.Tasks[0].ID != "b" {
		t.Errorf("first task = %s, want the oldest", r.Tasks[0].ID)
	}
}

func TestProductivityStats(t *testing.T) {
	c, r0 := newTestClient(t, map[string]reply{"completed_in_window": {json: `{"tasks":[
	 {"id":"z","name":"Z","completed":true,"completionDate":"2025-06-04 23:59"},
	 {"id":"a","name":"A","completed":true,"completionDate":"2025-06-10 09:00","project":"Home","projectId":"p1"},
	 {"id":"b","name":"B","completed":true,"completionDate":"2025-06-10 18:30"},
	 {"id":"c","name":"C","completed":true,"completionDate":"2025-06-11 08:00","project":"Home","projectId":"p1"}
	],"counts":{"open":12,"overdue":2,"flagged":3,"inbox":4}}`}}, nil)

	r, err := c.ProductivityStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("ProductivityStats: %v", err)
	}
	if r.Completed != 3 || len(r.PerDay) != 7 || r.PerDay["2025-06-10"] != 2 {
		t.Errorf("report = %+v", r)
	}
	if r.Since != "2025-06-05" || r.BestDay != "2025-06-10" {
		t.Errorf("since = %s best = %s", r.Since, r.BestDay)
	}
	if r.Open.Open != 12 || r.Open.Inbox != 4 {
		t.Errorf("open = %+v", r.Open)
	}
	if r.ByProject["Home"] != 2 || r.ByProject[NoProject] != 1 {
		t.Errorf("by project = %v", r.ByProject)
	}
	if _, ok := r.PerDay["2025-06-04"]; ok {
		t.Errorf("per day has a key before the window: %v", r.PerDay)
	}
	src := r0.sources["completed_in_window"]
	if strings.Contains(src, "2025-06-04 23:59") || !strings.Contains(src, "2025-06-05") {
		t.Errorf("window start is not the first day of the window")
	}
}

func TestSuggestRanking(t *testing.T) {
	c, _ := newTestClient(t, map[string]reply{"list_tasks": {json: `{"tasks":[
	 {"id":"plain-old","name":"Old","available":true,"added":"2025-01-01"},
	 {"id":"plain-new","name":"New","available":true,"added":"2025-06-01"},
	 {"id":"soon","name":"Soon","available":true,"dueDate":"2025-06-12"},
	 {"id":"late","name":"Late","available":true,"dueDate":"2025-06-02"},
	 {"id":"flag","name":"Flag","available":true,"flagged":true}
	]}`}}, nil)
	got, err := c.Suggest(context.Background(), 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := []string{"flag", "late", "soon", "plain-old", "plain-new"}
	if len(got) != len(want) {
		t.Fatalf("got %d suggestions, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].Task.ID != id {
			t.Errorf("rank %d = %s, want %s", i, got[i].Task.ID, id)
		}
	}
}
