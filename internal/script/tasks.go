package script

import (
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

var hNotFound = &helper{name: "notFound", src: `
function notFound(kind, id) {
  return JSON.stringify({ error: kind + ' not found: ' + id, code: 'not_found', id: id });
}`}

// ValidateTaskFilter rejects filter combinations no task can satisfy or the
// predicate compiler does not understand.
func ValidateTaskFilter(f models.TaskFilter) error {
	switch f.EffectiveTagMode() {
	case models.TagModeAnd, models.TagModeOr, models.TagModeNotIn:
	default:
		return bridgeerr.Newf(bridgeerr.UnsupportedFilterCombination, "unsupported tag mode %q", f.TagMode).
			WithSuggestion("use one of AND, OR, NOT_IN")
	}
	if f.Overdue && f.Completed != nil && *f.Completed {
		return bridgeerr.New(bridgeerr.UnsupportedFilterCombination, "overdue tasks are never completed").
			WithDetails(map[string]any{"fields": []string{"overdue", "completed"}})
	}
	bounds := []struct {
		name          string
		before, after *models.Timestamp
	}{
		{"due", f.DueBefore, f.DueAfter},
		{"defer", f.DeferBefore, f.DeferAfter},
		{"planned", f.PlannedBefore, f.PlannedAfter},
		{"completed", f.CompletedBefore, f.CompletedAfter},
	}
	for _, b := range bounds {
		if b.before != nil && b.after != nil && !b.after.Before(b.before.Time) {
			return bridgeerr.Newf(bridgeerr.UnsupportedFilterCombination,
				"%sBefore must be later than %sAfter", b.name, b.name).
				WithDetails(map[string]any{"before": b.before.String(), "after": b.after.String()})
		}
	}
	if f.Limit < 0 {
		return bridgeerr.Newf(bridgeerr.InvalidValue, "limit must not be negative, got %d", f.Limit)
	}
	return nil
}

// compileTaskFilter returns the filter object handed to the script and the
// predicate clauses for the fields the caller set. Clauses read the raw host
// task t and its serialized form o.
func compileTaskFilter(f models.TaskFilter) (map[string]any, []string) {
	F := map[string]any{}
	var clauses []string
	if len(f.IDs) > 0 {
		F["ids"] = f.IDs
		clauses = append(clauses, "F.ids.indexOf(o.id) !== -1")
	}
	boolField := func(key string, v *bool) {
		if v == nil {
			return
		}
		F[key] = *v
		clauses = append(clauses, "o."+key+" === F."+key)
	}
	boolField("completed", f.Completed)
	boolField("flagged", f.Flagged)
	boolField("dropped", f.Dropped)
	boolField("blocked", f.Blocked)
	boolField("available", f.Available)
	boolField("inInbox", f.InInbox)
	if f.ProjectID != "" {
		F["projectId"] = f.ProjectID
		clauses = append(clauses, "o.projectId === F.projectId")
	}
	if f.ProjectName != "" {
		F["projectName"] = strings.ToLower(f.ProjectName)
		clauses = append(clauses, "(o.project || '').toLowerCase() === F.projectName")
	}
	if f.Search != "" {
		F["search"] = strings.ToLower(f.Search)
		clauses = append(clauses,
			"(o.name + '\\n' + safeGet(function () { return t.note; }, '')).toLowerCase().indexOf(F.search) !== -1")
	}
	if len(f.Tags) > 0 {
		lower := make([]string, len(f.Tags))
		for i, tag := range f.Tags {
			lower[i] = strings.ToLower(tag)
		}
		F["tags"] = lower
		switch f.EffectiveTagMode() {
		case models.TagModeAnd:
			clauses = append(clauses, "tagHits(o.tags) === F.tags.length")
		case models.TagModeNotIn:
			clauses = append(clauses, "tagHits(o.tags) === 0")
		default:
			clauses = append(clauses, "tagHits(o.tags) > 0")
		}
	}
	if f.HasDueDate != nil {
		F["hasDueDate"] = *f.HasDueDate
		clauses = append(clauses, "(o.dueDate !== null) === F.hasDueDate")
	}
	if f.Overdue {
		clauses = append(clauses,
			"!o.completed && !o.dropped && isBefore(safeGet(function () { return t.dueDate; }, null), startOfToday)")
	}
	dateField := func(name, prop string, before, after *models.Timestamp) {
		if before == nil && after == nil {
			return
		}
		b, a := name+"Before", name+"After"
		if before != nil {
			F[b] = before.HostString()
		}
		if after != nil {
			F[a] = after.HostString()
		}
		clauses = append(clauses, "inRange(safeGet(function () { return t."+prop+"; }, null), B."+b+", B."+a+")")
	}
	dateField("due", "dueDate", f.DueBefore, f.DueAfter)
	dateField("defer", "deferDate", f.DeferBefore, f.DeferAfter)
	dateField("planned", "plannedDate", f.PlannedBefore, f.PlannedAfter)
	dateField("completed", "completionDate", f.CompletedBefore, f.CompletedAfter)
	return F, clauses
}

const predicatePrelude = `
var B = {};
['due', 'defer', 'planned', 'completed'].forEach(function (k) {
  B[k + 'Before'] = parseDate(F[k + 'Before']);
  B[k + 'After'] = parseDate(F[k + 'After']);
});
function isBefore(d, bound) { return !!d && d.getTime() < bound.getTime(); }
function tagHits(tags) {
  var n = 0;
  for (var i = 0; i < F.tags.length; i++) {
    for (var j = 0; j < tags.length; j++) {
      if (tags[j].toLowerCase() === F.tags[i]) { n++; break; }
    }
  }
  return n;
}`

func predicate(clauses []string) string {
	if len(clauses) == 0 {
		return "function matches(t, o) { return true; }"
	}
	return "function matches(t, o) {\n  return " + strings.Join(clauses, " &&\n    ") + ";\n}"
}

var listTasksHelpers = []*helper{hSafeGet, hParseDate, hStartOfToday, hInRange, hSerializeTask}

// ListTasks scans tasks through the bridge and keeps those matching f.
func (b *Builder) ListTasks(f models.TaskFilter) (Script, error) {
	if err := ValidateTaskFilter(f); err != nil {
		return Script{}, err
	}
	F, clauses := compileTaskFilter(f)
	body := `var F = $FILTER$;
var LIMIT = $LIMIT$;
var DETAILS = $DETAILS$;
` + predicatePrelude + "\n" + predicate(clauses) + `
var source = flattenedTasks;
if (F.projectId) {
  var scope = Project.byIdentifier(F.projectId);
  source = scope ? scope.flattenedTasks : [];
} else if (F.inInbox === true) {
  source = flattenedTasks.filter(function (t) {
    return safeGet(function () { return t.inInbox; }, false);
  });
}
var out = [];
var skipped = 0;
for (var i = 0; i < source.length; i++) {
  var t = source[i];
  var o = serializeTask(t, DETAILS);
  if (!o) { skipped++; continue; }
  if (!matches(t, o)) continue;
  out.push(o);
  if (LIMIT > 0 && out.length >= LIMIT) break;
}
return JSON.stringify({ tasks: out, scanned: source.length, skipped: skipped });`
	return b.bridge(spec{
		name:    "list_tasks",
		helpers: listTasksHelpers,
		body:    body,
		params:  map[string]any{"FILTER": F, "LIMIT": f.Limit, "DETAILS": f.IncludeDetails},
		bulk:    true,
	})
}

// GetTask reads one task by id.
func (b *Builder) GetTask(id string) (Script, error) {
	if strings.TrimSpace(id) == "" {
		return Script{}, missing("id")
	}
	params := map[string]any{"ID": id}
	return b.withFallback(spec{
		name:    "get_task",
		helpers: []*helper{hJxaTask, hNotFound},
		body: `var t = jxaFindTask($ID$);
if (!t) return notFound('task', $ID$);
return JSON.stringify({ task: jxaTask(t) });`,
		params: params,
	}, spec{
		name:    "get_task",
		helpers: []*helper{hSerializeTask, hBridgeFindTask, hNotFound},
		body: `var t = findTask($ID$);
if (!t) return notFound('task', $ID$);
return JSON.stringify({ task: serializeTask(t, true) });`,
		params: params,
	})
}

func ruleParam(r *models.RepetitionRule) (map[string]any, error) {
	rs, err := r.RRule()
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.InvalidValue, err, "invalid repetition rule")
	}
	return map[string]any{"ruleString": rs, "method": models.NormalizeMethod(r.Method)}, nil
}

func dateParam(ts *models.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.HostString()
}

func dateChangeParam(p map[string]any, key string, c *models.DateChange) {
	if c == nil {
		return
	}
	if c.Clear || c.Value == nil {
		p[key] = nil
		return
	}
	p[key] = c.Value.HostString()
}

// CreateTask adds a task to the inbox, a project or under a parent task.
func (b *Builder) CreateTask(in models.TaskCreate) (Script, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Script{}, missing("name")
	}
	if in.ProjectID != "" && in.ParentTaskID != "" {
		return Script{}, bridgeerr.New(bridgeerr.ConflictingTargetSpecified,
			"set either projectId or parentTaskId, not both")
	}
	p := map[string]any{
		"name":         in.Name,
		"note":         in.Note,
		"projectId":    in.ProjectID,
		"parentTaskId": in.ParentTaskID,
		"flagged":      in.Flagged,
		"dueDate":      dateParam(in.DueDate),
		"deferDate":    dateParam(in.DeferDate),
		"plannedDate":  dateParam(in.PlannedDate),
		"tags":         nonNil(in.Tags),
	}
	if in.EstimatedMinutes != nil {
		p["estimatedMinutes"] = *in.EstimatedMinutes
	}
	if in.RepetitionRule != nil {
		rule, err := ruleParam(in.RepetitionRule)
		if err != nil {
			return Script{}, err
		}
		p["rule"] = rule
	}
	return b.bridge(spec{
		name:    "create_task",
		helpers: []*helper{hSerializeTask, hParseDate, hTagBridge, hRepetition, hBridgeFindTask, hNotFound},
		body: `var P = $TASK$;
var position = inbox.ending;
if (P.parentTaskId) {
  var parent = findTask(P.parentTaskId);
  if (!parent) return notFound('task', P.parentTaskId);
  position = parent.ending;
} else if (P.projectId) {
  var proj = Project.byIdentifier(P.projectId);
  if (!proj) return notFound('project', P.projectId);
  position = proj.ending;
}
var t = new Task(P.name, position);
if (P.note) t.note = P.note;
t.flagged = !!P.flagged;
if (P.dueDate) t.dueDate = parseDate(P.dueDate);
if (P.deferDate) t.deferDate = parseDate(P.deferDate);
if (P.plannedDate) t.plannedDate = parseDate(P.plannedDate);
if (typeof P.estimatedMinutes === 'number') t.estimatedMinutes = P.estimatedMinutes;
if (P.tags.length) addTagsByName(t, P.tags);
if (P.rule) t.repetitionRule = makeRule(P.rule);
return JSON.stringify({ task: serializeTask(t, true) });`,
		params:  map[string]any{"TASK": p},
		mutates: true,
	})
}

// UpdateTask applies a partial update. Keys absent from the change set are
// left untouched; null keys clear the field.
func (b *Builder) UpdateTask(in models.TaskUpdate) (Script, error) {
	if strings.TrimSpace(in.ID) == "" {
		return Script{}, missing("id")
	}
	if in.IsEmpty() {
		return Script{}, bridgeerr.New(bridgeerr.MissingRequiredField, "update names no fields to change").
			WithSuggestion("pass at least one field to update")
	}
	p := map[string]any{}
	if in.Name != nil {
		p["name"] = *in.Name
	}
	if in.Note != nil {
		p["note"] = *in.Note
	}
	if in.Flagged != nil {
		p["flagged"] = *in.Flagged
	}
	dateChangeParam(p, "dueDate", in.DueDate)
	dateChangeParam(p, "deferDate", in.DeferDate)
	dateChangeParam(p, "plannedDate", in.PlannedDate)
	switch {
	case in.ClearEstimate:
		p["estimatedMinutes"] = nil
	case in.EstimatedMinutes != nil:
		p["estimatedMinutes"] = *in.EstimatedMinutes
	}
	if in.ReplaceTags {
		p["tags"] = nonNil(in.Tags)
	}
	if len(in.AddTags) > 0 {
		p["addTags"] = in.AddTags
	}
	if len(in.RemoveTags) > 0 {
		p["removeTags"] = in.RemoveTags
	}
	switch {
	case in.ClearRepetition:
		p["rule"] = nil
	case in.RepetitionRule != nil:
		rule, err := ruleParam(in.RepetitionRule)
		if err != nil {
			return Script{}, err
		}
		p["rule"] = rule
	}
	return b.bridge(spec{
		name:    "update_task",
		helpers: []*helper{hSerializeTask, hParseDate, hTagBridge, hRepetition, hBridgeFindTask, hNotFound},
		body: `var P = $CHANGES$;
var t = findTask($ID$);
if (!t) return notFound('task', $ID$);
if ('name' in P) t.name = P.name;
if ('note' in P) t.note = P.note;
if ('flagged' in P) t.flagged = P.flagged;
['dueDate', 'deferDate', 'plannedDate'].forEach(function (k) {
  if (k in P) t[k] = P[k] === null ? null : parseDate(P[k]);
});
if ('estimatedMinutes' in P) t.estimatedMinutes = P.estimatedMinutes;
if ('tags' in P) { t.clearTags(); addTagsByName(t, P.tags); }
if ('addTags' in P) addTagsByName(t, P.addTags);
if ('removeTags' in P) removeTagsByName(t, P.removeTags);
if ('rule' in P) t.repetitionRule = P.rule === null ? null : makeRule(P.rule);
return JSON.stringify({ task: serializeTask(t, true) });`,
		params:  map[string]any{"ID": in.ID, "CHANGES": p},
		mutates: true,
	})
}

// CompleteTask marks one task complete.
func (b *Builder) CompleteTask(id string) (Script, error) {
	if strings.TrimSpace(id) == "" {
		return Script{}, missing("id")
	}
	params := map[string]any{"ID": id}
	return b.withFallback(spec{
		name:    "complete_task",
		helpers: []*helper{hJxaTask, hNotFound},
		body: `var t = jxaFindTask($ID$);
if (!t) return notFound('task', $ID$);
app.markComplete(t);
return JSON.stringify({ task: jxaTask(t) });`,
		params:  params,
		mutates: true,
	}, spec{
		name:    "complete_task",
		helpers: []*helper{hSerializeTask, hBridgeFindTask, hNotFound},
		body: `var t = findTask($ID$);
if (!t) return notFound('task', $ID$);
t.markComplete();
return JSON.stringify({ task: serializeTask(t, true) });`,
		params:  params,
		mutates: true,
	})
}

// DropTask drops one task. For repeating tasks only the current occurrence is
// dropped unless allOccurrences is set.
func (b *Builder) DropTask(id string, allOccurrences bool) (Script, error) {
	if strings.TrimSpace(id) == "" {
		return Script{}, missing("id")
	}
	return b.bridge(spec{
		name:    "drop_task",
		helpers: []*helper{hSerializeTask, hBridgeFindTask, hNotFound},
		body: `var t = findTask($ID$);
if (!t) return notFound('task', $ID$);
t.drop($ALL$);
return JSON.stringify({ task: serializeTask(t, true) });`,
		params:  map[string]any{"ID": id, "ALL": allOccurrences},
		mutates: true,
	})
}

// DeleteTask removes one task permanently.
func (b *Builder) DeleteTask(id string) (Script, error) {
	if strings.TrimSpace(id) == "" {
		return Script{}, missing("id")
	}
	params := map[string]any{"ID": id}
	return b.withFallback(spec{
		name:    "delete_task",
		helpers: []*helper{hJxaTask, hNotFound},
		body: `var t = jxaFindTask($ID$);
if (!t) return notFound('task', $ID$);
var name = safeGet(function () { return t.name(); }, '');
app.delete(t);
return JSON.stringify({ deleted: $ID$, name: name });`,
		params:  params,
		mutates: true,
	}, spec{
		name:    "delete_task",
		helpers: []*helper{hSafeGet, hBridgeFindTask, hNotFound},
		body: `var t = findTask($ID$);
if (!t) return notFound('task', $ID$);
var name = safeGet(function () { return t.name; }, '');
deleteObject(t);
return JSON.stringify({ deleted: $ID$, name: name });`,
		params:  params,
		mutates: true,
	})
}

// BulkDeleteTasks removes every listed task, reporting per-id failures
// instead of aborting.
func (b *Builder) BulkDeleteTasks(ids []string) (Script, error) {
	ids = compactIDs(ids)
	if len(ids) == 0 {
		return Script{}, missing("ids")
	}
	return b.bridge(spec{
		name:    "bulk_delete_tasks",
		helpers: []*helper{hBridgeFindTask},
		body: `var IDS = $IDS$;
var succeeded = [];
var errors = [];
for (var i = 0; i < IDS.length; i++) {
  var t = findTask(IDS[i]);
  if (!t) { errors.push({ id: IDS[i], error: 'task not found' }); continue; }
  try {
    deleteObject(t);
    succeeded.push(IDS[i]);
  } catch (e) {
    errors.push({ id: IDS[i], error: String(e) });
  }
}
return JSON.stringify({ requested: IDS.length, succeeded: succeeded, errors: errors });`,
		params:  map[string]any{"IDS": ids},
		mutates: true,
		bulk:    true,
	})
}

// MoveTasks relocates tasks to exactly one target.
func (b *Builder) MoveTasks(in models.TaskMove) (Script, error) {
	ids := compactIDs(in.IDs)
	if len(ids) == 0 {
		return Script{}, missing("ids")
	}
	targets := 0
	if in.ToInbox {
		targets++
	}
	if in.ToProjectID != "" {
		targets++
	}
	if in.ToParentTaskID != "" {
		targets++
	}
	if targets != 1 {
		return Script{}, bridgeerr.Newf(bridgeerr.ConflictingTargetSpecified,
			"move needs exactly one target, got %d", targets).
			WithSuggestion("set one of toInbox, toProjectId, toParentTaskId")
	}
	target := map[string]any{"inbox": in.ToInbox, "projectId": in.ToProjectID, "parentTaskId": in.ToParentTaskID}
	return b.bridge(spec{
		name:    "move_tasks",
		helpers: []*helper{hBridgeFindTask, hNotFound},
		body: `var IDS = $IDS$;
var T = $TARGET$;
var position;
if (T.inbox) {
  position = inbox.ending;
} else if (T.projectId) {
  var proj = Project.byIdentifier(T.projectId);
  if (!proj) return notFound('project', T.projectId);
  position = proj.ending;
} else {
  var parent = findTask(T.parentTaskId);
  if (!parent) return notFound('task', T.parentTaskId);
  position = parent.ending;
}
var succeeded = [];
var errors = [];
for (var i = 0; i < IDS.length; i++) {
  var t = findTask(IDS[i]);
  if (!t) { errors.push({ id: IDS[i], error: 'task not found' }); continue; }
  try {
    moveTasks([t], position);
    succeeded.push(IDS[i]);
  } catch (e) {
    errors.push({ id: IDS[i], error: String(e) });
  }
}
return JSON.stringify({ requested: IDS.length, succeeded: succeeded, errors: errors });`,
		params:  map[string]any{"IDS": ids, "TARGET": target},
		mutates: true,
		bulk:    len(ids) > 1,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func missing(field string) error {
	return bridgeerr.Newf(bridgeerr.MissingRequiredField, "%s is required", field).
		WithDetails(map[string]any{"field": field})
}

// compactIDs trims ids and drops blanks and duplicates, keeping order.
func compactIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
