package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type row struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Flagged bool     `json:"flagged"`
	Minutes *int     `json:"estimatedMinutes"`
	Tags    []string `json:"tags"`
	Rec     *struct {
		Type string `json:"type"`
	} `json:"recurrence,omitempty"`
}

func rows() []row {
	five, thirty := 5, 30
	return []row{
		{ID: "b", Name: "bravo", Minutes: &thirty, Tags: []string{"home", "errand"}},
		{ID: "a", Name: "Alpha", Flagged: true, Minutes: &five, Tags: []string{}},
		{ID: "c", Name: "charlie", Tags: []string{"work"}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"JSON", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{"csv", FormatCSV, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"name", "a,b,c"},
		{"name:desc", "c,b,a"},
		{"estimatedMinutes", "a,b,c"},
		{"estimatedMinutes:desc", "b,a,c"},
		{"flagged:desc", "a,b,c"},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			recs, err := Records(rows())
			if err != nil {
				t.Fatal(err)
			}
			if err := SortRecords(recs, tt.sort); err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, r := range recs {
				ids = append(ids, r["id"].(string))
			}
			if got := strings.Join(ids, ","); got != tt.want {
				t.Errorf("order = %s, want %s", got, tt.want)
			}
		})
	}

	if err := SortRecords(nil, "name:sideways"); err == nil {
		t.Error("expected an error for a bad direction")
	}
}

func TestPage(t *testing.T) {
	recs, _ := Records(rows())
	if got := Page(recs, 1, 1); len(got) != 1 || got[0]["id"] != "a" {
		t.Errorf("Page(1,1) = %v", got)
	}
	if got := Page(recs, 5, 0); len(got) != 0 {
		t.Errorf("Page past end = %v", got)
	}
}

func TestListJSONFields(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Format: FormatJSON, Fields: []string{"id", "recurrence.type"}, Sort: "id", Limit: 2})
	in := rows()
	in[1].Rec = &struct {
		Type string `json:"type"`
	}{Type: "rescheduled"}
	if err := p.List(in, nil); err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if len(got) != 2 || got[0]["recurrence.type"] != "rescheduled" || len(got[0]) != 2 {
		t.Errorf("got %v", got)
	}
}

func TestListCSV(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Format: FormatCSV, Sort: "id"})
	if err := p.List(rows(), []string{"id", "name", "tags"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "id,name,tags" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != `b,bravo,"home, errand"` {
		t.Errorf("row = %q", lines[2])
	}
}

func TestQuietPrintsIDs(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Quiet: true, Sort: "id:desc"})
	if err := p.List(rows(), []string{"name"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "c\nb\na\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestCopyUsesClipboard(t *testing.T) {
	var buf bytes.Buffer
	var copied string
	p := New(&buf, Options{Format: FormatJSON, Copy: true})
	p.clip = func(s string) error { copied = s; return nil }
	if err := p.Object(map[string]any{"id": "x"}); err != nil {
		t.Fatal(err)
	}
	if copied != buf.String() || copied == "" {
		t.Errorf("copied %q, printed %q", copied, buf.String())
	}
}

func TestMessageSuppressedForMachineFormats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Format: FormatJSON}).Message("created %s", "x")
	if buf.Len() != 0 {
		t.Errorf("got %q", buf.String())
	}
}

func TestHeaderName(t *testing.T) {
	tests := map[string]string{
		"dueDate":         "DUE DATE",
		"recurrence.type": "RECURRENCE TYPE",
		"id":              "ID",
	}
	for in, want := range tests {
		if got := headerName(in); got != want {
			t.Errorf("headerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "yes"},
		{false, ""},
		{float64(30), "30"},
		{1.5, "1.5"},
		{[]any{"a", "b"}, "a, b"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := Cell(tt.in); got != tt.want {
			t.Errorf("Cell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
