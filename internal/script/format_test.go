package script

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
)

func TestFormatLiterals(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"string", `say "hi"`, `"say \"hi\""`},
		{"nil slice", []string(nil), "[]"},
		{"slice", []string{"a", "b"}, `["a","b"]`},
		{"map", map[string]any{"b": 1, "a": false}, `{"a":false,"b":1}`},
		{"nil pointer", (*int)(nil), "null"},
		{"dollar", "$5", `"\u00245"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format("x = $V$;", map[string]any{"V": tt.value})
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if want := "x = " + tt.want + ";"; got != want {
				t.Errorf("Format() = %q, want %q", got, want)
			}
		})
	}
}

func TestFormatInjectionSafety(t *testing.T) {
	inputs := []string{
		`"); app.quit(); ("`,
		"$OTHER$",
		"line break end",
		`back\slash ' quote`,
		"</script>$$",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out, err := Format("var v = $V$; var w = $OTHER$;", map[string]any{"V": in, "OTHER": 1})
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if strings.Count(out, "$") != 0 {
				t.Fatalf("output still contains a dollar sign: %q", out)
			}
			lit := strings.TrimSuffix(strings.TrimPrefix(out, "var v = "), "; var w = 1;")
			var back string
			if err := json.Unmarshal([]byte(lit), &back); err != nil {
				t.Fatalf("literal %q does not decode: %v", lit, err)
			}
			if back != in {
				t.Errorf("round trip = %q, want %q", back, in)
			}
		})
	}
}

func TestFormatMissingParameters(t *testing.T) {
	_, err := Format("$B$ $A$ $B$ $C$", map[string]any{"C": 1})
	if !bridgeerr.HasCode(err, bridgeerr.MissingTemplateParameter) {
		t.Fatalf("Format() error = %v, want MissingTemplateParameter", err)
	}
	e, _ := bridgeerr.As(err)
	missing, _ := e.Details["missing"].([]string)
	if strings.Join(missing, ",") != "A,B" {
		t.Errorf("missing = %v, want [A B]", missing)
	}
}

func TestFormatMixedCasePlaceholderIsMissing(t *testing.T) {
	_, err := Format("Task.byIdentifier($taskId$)", map[string]any{"TASK_ID": "x"})
	if !bridgeerr.HasCode(err, bridgeerr.MissingTemplateParameter) {
		t.Fatalf("Format() error = %v, want MissingTemplateParameter", err)
	}
	if ph := Placeholders("a $taskId$ b $LIMIT$"); strings.Join(ph, ",") != "LIMIT,taskId" {
		t.Errorf("Placeholders() = %v", ph)
	}
}

func TestFormatUnsupportedValues(t *testing.T) {
	for name, v := range map[string]any{
		"nan":  math.NaN(),
		"inf":  math.Inf(1),
		"func": func() {},
		"chan": make(chan int),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Format("$V$", map[string]any{"V": v}); err == nil {
				t.Errorf("Format(%s) succeeded, want error", name)
			}
		})
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	params := map[string]any{"M": map[string]any{"z": 1, "a": []string{"x"}, "m": nil}}
	first := MustFormat("$M$", params)
	for i := 0; i < 20; i++ {
		if got := MustFormat("$M$", params); got != first {
			t.Fatalf("run %d = %q, want %q", i, got, first)
		}
	}
}
