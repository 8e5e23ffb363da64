package models

import (
	"fmt"
	"testing"
	"time"
)

func mustTS(t *testing.T, s string) *Timestamp {
	t.Helper()
	ts, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q) error = %v", s, err)
	}
	return &ts
}

func TestTaskFilterCompletedFlagged(t *testing.T) {
	var tasks []Task
	add := func(n int, completed, flagged bool) {
		for i := 0; i < n; i++ {
			tasks = append(tasks, Task{
				ID:        fmt.Sprintf("t%d", len(tasks)),
				Name:      "task",
				Completed: completed,
				Flagged:   flagged,
				Tags:      []string{},
			})
		}
	}
	add(3, false, true)
	add(2, true, true)
	add(5, false, false)

	f := TaskFilter{Completed: Bool(false), Flagged: Bool(true)}
	got := FilterTasks(tasks, f, Now())
	if len(got) != 3 {
		t.Fatalf("FilterTasks() returned %d tasks, want 3", len(got))
	}
	for _, task := range got {
		if task.Completed || !task.Flagged {
			t.Errorf("unexpected task in result: %+v", task)
		}
	}
}

func TestTaskFilterDueBeforeIsExclusive(t *testing.T) {
	tasks := []Task{
		{ID: "a", DueDate: mustTS(t, "2025-05-01")},
		{ID: "b", DueDate: mustTS(t, "2025-06-01")},
		{ID: "c", DueDate: mustTS(t, "2025-07-01")},
		{ID: "d"},
	}
	f := TaskFilter{DueBefore: mustTS(t, "2025-06-01")}
	got := FilterTasks(tasks, f, Now())
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("FilterTasks(dueBefore) = %+v, want only task a", got)
	}

	f = TaskFilter{DueAfter: mustTS(t, "2025-06-01")}
	got = FilterTasks(tasks, f, Now())
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("FilterTasks(dueAfter) = %+v, want only task c", got)
	}
}

func TestTaskFilterTagModes(t *testing.T) {
	task := Task{ID: "x", Tags: []string{"Home", "Errands"}}
	tests := []struct {
		name string
		tags []string
		mode string
		want bool
	}{
		{"or matches one", []string{"home", "work"}, TagModeOr, true},
		{"default mode is or", []string{"work", "errands"}, "", true},
		{"and needs all", []string{"home", "work"}, TagModeAnd, false},
		{"and satisfied", []string{"home", "errands"}, TagModeAnd, true},
		{"not in excludes", []string{"home"}, TagModeNotIn, false},
		{"not in passes", []string{"work"}, TagModeNotIn, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := TaskFilter{Tags: tt.tags, TagMode: tt.mode}
			if got := f.Matches(task, Now()); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskIsOverdue(t *testing.T) {
	now := NewTimestamp(time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local))
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"due yesterday", Task{DueDate: mustTS(t, "2025-06-09 17:00")}, true},
		{"due earlier today", Task{DueDate: mustTS(t, "2025-06-10 08:00")}, false},
		{"completed", Task{Completed: true, DueDate: mustTS(t, "2025-06-01")}, false},
		{"no due date", Task{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeTasksDedup(t *testing.T) {
	a := []Task{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	b := []Task{{ID: "3"}, {ID: "4"}, {ID: "1"}}
	got := MergeTasks(a, b)
	if want := len(a) + len(b) - 2; len(got) != want {
		t.Fatalf("MergeTasks() len = %d, want %d", len(got), want)
	}
	order := []string{"1", "2", "3", "4"}
	for i, id := range order {
		if got[i].ID != id {
			t.Errorf("MergeTasks()[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestProjectFilterMatches(t *testing.T) {
	now := Now()
	past := NewTimestamp(now.Add(-48 * time.Hour))
	folder := "Work"
	p := Project{ID: "p1", Name: "Launch", Status: ProjectStatusActive, Folder: &folder, NextReviewDate: &past}

	if !(ProjectFilter{Statuses: []string{ProjectStatusActive}}).Matches(p, now) {
		t.Error("status filter should match active project")
	}
	if (ProjectFilter{Statuses: []string{ProjectStatusDone}}).Matches(p, now) {
		t.Error("status filter should not match done")
	}
	if !(ProjectFilter{FolderName: "work", NeedsReview: true}).Matches(p, now) {
		t.Error("folder + needsReview should match")
	}
}
