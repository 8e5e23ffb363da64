package script

import (
	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// OverdueTasks collects open tasks due before the start of today.
func (b *Builder) OverdueTasks(limit int) (Script, error) {
	return b.bridge(spec{
		name:    "overdue_tasks",
		helpers: []*helper{hSerializeTask, hStartOfToday},
		body: `var LIMIT = $LIMIT$;
var out = [];
var all = flattenedTasks;
for (var i = 0; i < all.length; i++) {
  var t = all[i];
  var due = safeGet(function () { return t.dueDate; }, null);
  if (!due || due.getTime() >= startOfToday.getTime()) continue;
  var o = serializeTask(t, false);
  if (!o || o.completed || o.dropped) continue;
  out.push(o);
  if (LIMIT > 0 && out.length >= LIMIT) break;
}
return JSON.stringify({ tasks: out, scanned: all.length });`,
		params: map[string]any{"LIMIT": limit},
		bulk:   true,
	})
}

// CompletedInWindow collects tasks completed in [since, until), with open-task
// counters for the same snapshot.
func (b *Builder) CompletedInWindow(since, until models.Timestamp) (Script, error) {
	if !since.Before(until.Time) {
		return Script{}, bridgeerr.New(bridgeerr.UnsupportedFilterCombination, "window start must precede its end").
			WithDetails(map[string]any{"since": since.String(), "until": until.String()})
	}
	return b.bridge(spec{
		name:    "completed_in_window",
		helpers: []*helper{hSerializeTask, hParseDate, hStartOfToday},
		body: `var SINCE = parseDate($SINCE$);
var UNTIL = parseDate($UNTIL$);
var out = [];
var counts = { open: 0, overdue: 0, flagged: 0, inbox: 0 };
var all = flattenedTasks;
for (var i = 0; i < all.length; i++) {
  var t = all[i];
  var o = serializeTask(t, false);
  if (!o) continue;
  if (o.completed) {
    var done = safeGet(function () { return t.completionDate; }, null);
    if (done && done.getTime() >= SINCE.getTime() && done.getTime() < UNTIL.getTime()) out.push(o);
    continue;
  }
  if (o.dropped) continue;
  counts.open++;
  if (o.flagged) counts.flagged++;
  if (o.inInbox) counts.inbox++;
  var due = safeGet(function () { return t.dueDate; }, null);
  if (due && due.getTime() < startOfToday.getTime()) counts.overdue++;
}
return JSON.stringify({ tasks: out, counts: counts });`,
		params: map[string]any{"SINCE": since.HostString(), "UNTIL": until.HostString()},
		bulk:   true,
	})
}

// RecurringCandidates collects tasks worth running through the recurrence
// analyzers: every task with a repetition rule, plus open rule-less tasks
// when includeUnruled is set so name heuristics can see them.
func (b *Builder) RecurringCandidates(includeCompleted, includeUnruled bool, limit int) (Script, error) {
	return b.bridge(spec{
		name:    "recurring_candidates",
		helpers: []*helper{hSerializeTask},
		body: `var OPTS = $OPTS$;
var out = [];
var all = flattenedTasks;
for (var i = 0; i < all.length; i++) {
  var t = all[i];
  var hasRule = !!safeGet(function () { return t.repetitionRule; }, null);
  if (!hasRule && !OPTS.includeUnruled) continue;
  var o = serializeTask(t, true);
  if (!o) continue;
  if (o.completed && !OPTS.includeCompleted) continue;
  if (o.dropped) continue;
  out.push(o);
  if (OPTS.limit > 0 && out.length >= OPTS.limit) break;
}
return JSON.stringify({ tasks: out, scanned: all.length });`,
		params: map[string]any{"OPTS": map[string]any{
			"includeCompleted": includeCompleted,
			"includeUnruled":   includeUnruled,
			"limit":            limit,
		}},
		bulk: true,
	})
}
