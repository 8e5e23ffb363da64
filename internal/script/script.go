// Package script builds the automation scripts run against the GTD host.
//
// Every script is assembled from a body, the minimal set of helper snippets it
// needs, and parameters that reach the script only through Format. Direct
// scripts run as plain JXA against the application's scripting dictionary;
// bridge scripts wrap an OmniJS program in app.evaluateJavascript, which runs
// inside the application and can read fields the dictionary does not expose.
package script

import (
	"fmt"
	"strings"
)

// Strategy selects how a script reaches the host.
type Strategy int

const (
	// Direct runs per-property scripting calls. Simple and slow at scale.
	Direct Strategy = iota
	// Bridge evaluates an embedded program inside the host's own engine.
	Bridge
)

func (s Strategy) String() string {
	if s == Bridge {
		return "bridge"
	}
	return "direct"
}

// Script is a ready-to-run program.
type Script struct {
	Name     string
	Source   string
	Strategy Strategy
	// Mutates marks scripts that change host state; the executor serializes them.
	Mutates bool
	// Bulk marks scans and multi-record writes; they get the long timeout.
	Bulk bool
	// Fallback is the alternate entry point for the same logical operation,
	// used only for host errors with a known workaround.
	Fallback *Script
}

// DefaultAppName is the scripting name of the target application.
const DefaultAppName = "OmniFocus"

// Builder renders scripts for one target application.
type Builder struct {
	AppName string
}

// NewBuilder returns a Builder for appName, or the default application when empty.
func NewBuilder(appName string) *Builder {
	if strings.TrimSpace(appName) == "" {
		appName = DefaultAppName
	}
	return &Builder{AppName: appName}
}

type helper struct {
	name string
	src  string
	deps []*helper
}

// collectHelpers returns the helpers and their dependencies in definition
// order, each once.
func collectHelpers(hs []*helper) string {
	seen := make(map[string]bool)
	var b strings.Builder
	var visit func(h *helper)
	visit = func(h *helper) {
		if seen[h.name] {
			return
		}
		seen[h.name] = true
		for _, d := range h.deps {
			visit(d)
		}
		b.WriteString(strings.TrimSpace(h.src))
		b.WriteString("\n")
	}
	for _, h := range hs {
		visit(h)
	}
	return b.String()
}

const directWrapper = `(function () {
var app = Application($APP$);
var doc = app.defaultDocument;
%s
%s
})();`

const bridgeProgram = `(function () {
%s
%s
})();`

const bridgeWrapper = `(function () {
var app = Application($APP$);
return app.evaluateJavascript($PROGRAM$);
})();`

type spec struct {
	name    string
	helpers []*helper
	body    string
	params  map[string]any
	mutates bool
	bulk    bool
}

// direct renders a JXA script. The body must return a string.
func (b *Builder) direct(s spec) (Script, error) {
	params := withParam(s.params, "APP", b.AppName)
	src, err := Format(fmt.Sprintf(directWrapper, collectHelpers(s.helpers), s.body), params)
	if err != nil {
		return Script{}, fmt.Errorf("build %s: %w", s.name, err)
	}
	return Script{Name: s.name, Source: src, Strategy: Direct, Mutates: s.mutates, Bulk: s.bulk}, nil
}

// bridge renders an OmniJS program and embeds it, as a string literal, in a JXA
// wrapper. The program is formatted first, so every parameter is escaped twice
// over by the time it reaches the outer script.
func (b *Builder) bridge(s spec) (Script, error) {
	program, err := Format(fmt.Sprintf(bridgeProgram, collectHelpers(s.helpers), s.body), s.params)
	if err != nil {
		return Script{}, fmt.Errorf("build %s: %w", s.name, err)
	}
	src, err := Format(bridgeWrapper, map[string]any{"APP": b.AppName, "PROGRAM": program})
	if err != nil {
		return Script{}, fmt.Errorf("wrap %s: %w", s.name, err)
	}
	return Script{Name: s.name, Source: src, Strategy: Bridge, Mutates: s.mutates, Bulk: s.bulk}, nil
}

// withFallback builds the primary direct script and its bridge alternate.
func (b *Builder) withFallback(primary, alternate spec) (Script, error) {
	p, err := b.direct(primary)
	if err != nil {
		return Script{}, err
	}
	a, err := b.bridge(alternate)
	if err != nil {
		return Script{}, err
	}
	p.Fallback = &a
	return p, nil
}

func withParam(params map[string]any, key string, v any) map[string]any {
	out := make(map[string]any, len(params)+1)
	for k, val := range params {
		out[k] = val
	}
	out[key] = v
	return out
}
