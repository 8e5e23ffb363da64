package bridgeerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFallbackEligible(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"parameter missing in stderr", New(HostProcessError, "osascript exited with status 1").WithStderr("Error: A parameter is missing. (-1701)"), true},
		{"access not allowed in message", New(HostProcessError, "Access not allowed"), true},
		{"wrapped", fmt.Errorf("get task: %w", New(HostProcessError, "x").WithStderr("access not allowed")), true},
		{"other host error", New(HostProcessError, "exit 1").WithStderr("Can't get object"), false},
		{"timeout never falls back", New(ExecutionTimeout, "parameter is missing"), false},
		{"input error", New(MissingRequiredField, "parameter is missing"), false},
		{"plain error", errors.New("parameter is missing"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFallbackEligible(tt.err); got != tt.want {
				t.Errorf("IsFallbackEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindsFollowCodes(t *testing.T) {
	if k := New(ConflictingTargetSpecified, "x").Kind; k != KindInput {
		t.Errorf("kind = %v, want input", k)
	}
	if k := New(ScriptTooLarge, "x").Kind; k != KindGeneration {
		t.Errorf("kind = %v, want generation", k)
	}
	if !IsInput(fmt.Errorf("wrap: %w", New(UnsupportedFilterCombination, "x"))) {
		t.Error("IsInput should see through wrapping")
	}
}

func TestDescribe(t *testing.T) {
	err := New(HostProcessError, "osascript failed").WithStderr("line one\nline two").WithSuggestion("is the app running?")
	got := Describe(err)
	want := "osascript failed: line one (is the app running?)"
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}
