package script

import (
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

var hFindProject = &helper{name: "findProject", deps: []*helper{hSafeGet}, src: `
function findFolderByName(name) {
  var lower = String(name).toLowerCase();
  var all = flattenedFolders;
  for (var i = 0; i < all.length; i++) {
    if (safeGet(function () { return all[i].name.toLowerCase(); }, '') === lower) return all[i];
  }
  return null;
}
function setReviewInterval(p, spec) {
  var ri = p.reviewInterval;
  ri.steps = spec.steps;
  ri.unit = spec.unit;
  p.reviewInterval = ri;
}`}

var projectWriteHelpers = []*helper{hSerializeProject, hProjectStatus, hParseDate, hTagBridge, hFindProject, hNotFound}

// ValidateProjectFilter rejects unknown statuses and negative limits.
func ValidateProjectFilter(f models.ProjectFilter) error {
	for _, s := range f.Statuses {
		if !validProjectStatus(s) {
			return bridgeerr.Newf(bridgeerr.InvalidValue, "unknown project status %q", s).
				WithSuggestion("use one of " + strings.Join(models.ProjectStatuses, ", "))
		}
	}
	if f.Limit < 0 {
		return bridgeerr.Newf(bridgeerr.InvalidValue, "limit must not be negative, got %d", f.Limit)
	}
	return nil
}

func validProjectStatus(s string) bool {
	for _, v := range models.ProjectStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ListProjects scans projects, optionally with per-project task counts.
func (b *Builder) ListProjects(f models.ProjectFilter, counts bool) (Script, error) {
	if err := ValidateProjectFilter(f); err != nil {
		return Script{}, err
	}
	F := map[string]any{}
	var clauses []string
	if len(f.Statuses) > 0 {
		F["statuses"] = f.Statuses
		clauses = append(clauses, "F.statuses.indexOf(o.status) !== -1")
	}
	if f.Flagged != nil {
		F["flagged"] = *f.Flagged
		clauses = append(clauses, "o.flagged === F.flagged")
	}
	if f.FolderName != "" {
		F["folder"] = strings.ToLower(f.FolderName)
		clauses = append(clauses, "(o.folder || '').toLowerCase() === F.folder")
	}
	if f.Search != "" {
		F["search"] = strings.ToLower(f.Search)
		clauses = append(clauses, "(o.name + '\\n' + o.note).toLowerCase().indexOf(F.search) !== -1")
	}
	if f.NeedsReview {
		clauses = append(clauses,
			"o.status !== 'done' && o.status !== 'dropped' && isNotAfter(safeGet(function () { return p.nextReviewDate; }, null), new Date())")
	}
	pred := "function matches(p, o) { return true; }"
	if len(clauses) > 0 {
		pred = "function matches(p, o) {\n  return " + strings.Join(clauses, " &&\n    ") + ";\n}"
	}
	body := `var F = $FILTER$;
var LIMIT = $LIMIT$;
var COUNTS = $COUNTS$;
function isNotAfter(d, bound) { return !!d && d.getTime() <= bound.getTime(); }
` + pred + `
var source = flattenedProjects;
var out = [];
for (var i = 0; i < source.length; i++) {
  var p = source[i];
  var o = serializeProject(p, COUNTS);
  if (!o || !matches(p, o)) continue;
  out.push(o);
  if (LIMIT > 0 && out.length >= LIMIT) break;
}
return JSON.stringify({ projects: out, scanned: source.length });`
	return b.bridge(spec{
		name:    "list_projects",
		helpers: []*helper{hSerializeProject},
		body:    body,
		params:  map[string]any{"FILTER": F, "LIMIT": f.Limit, "COUNTS": counts},
		bulk:    true,
	})
}

// GetProject reads one project with task counts.
func (b *Builder) GetProject(id string) (Script, error) {
	if strings.TrimSpace(id) == "" {
		return Script{}, missing("id")
	}
	return b.bridge(spec{
		name:    "get_project",
		helpers: []*helper{hSerializeProject, hNotFound},
		body: `var p = Project.byIdentifier($ID$);
if (!p) return notFound('project', $ID$);
return JSON.stringify({ project: serializeProject(p, true) });`,
		params: map[string]any{"ID": id},
	})
}

// CreateProject adds a project at the top level or inside a named folder,
// creating the folder when it does not exist.
func (b *Builder) CreateProject(in models.ProjectCreate) (Script, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Script{}, missing("name")
	}
	if in.Status != "" && !validProjectStatus(in.Status) {
		return Script{}, bridgeerr.Newf(bridgeerr.InvalidValue, "unknown project status %q", in.Status)
	}
	p := map[string]any{
		"name":       in.Name,
		"note":       in.Note,
		"folder":     in.FolderName,
		"status":     in.Status,
		"flagged":    in.Flagged,
		"sequential": in.Sequential,
		"dueDate":    dateParam(in.DueDate),
		"deferDate":  dateParam(in.DeferDate),
		"tags":       nonNil(in.Tags),
	}
	if ri := in.ReviewInterval; ri != nil {
		if ri.Steps <= 0 {
			return Script{}, bridgeerr.Newf(bridgeerr.InvalidValue, "review interval steps must be positive, got %d", ri.Steps)
		}
		p["reviewInterval"] = map[string]any{"unit": models.NormalizeUnit(ri.Unit), "steps": ri.Steps}
	}
	return b.bridge(spec{
		name:    "create_project",
		helpers: projectWriteHelpers,
		body: `var P = $PROJECT$;
var position = library.ending;
if (P.folder) {
  var folder = findFolderByName(P.folder);
  if (!folder) folder = new Folder(P.folder, library.ending);
  position = folder.ending;
}
var p = new Project(P.name, position);
if (P.note) p.note = P.note;
if (P.status) p.status = toProjectStatus(P.status);
p.flagged = !!P.flagged;
p.sequential = !!P.sequential;
if (P.dueDate) p.dueDate = parseDate(P.dueDate);
if (P.deferDate) p.deferDate = parseDate(P.deferDate);
if (P.reviewInterval) setReviewInterval(p, P.reviewInterval);
if (P.tags.length) addTagsByName(p, P.tags);
return JSON.stringify({ project: serializeProject(p, false) });`,
		params:  map[string]any{"PROJECT": p},
		mutates: true,
	})
}

// UpdateProject applies a partial project update.
func (b *Builder) UpdateProject(in models.ProjectUpdate) (Script, error) {
	if strings.TrimSpace(in.ID) == "" {
		return Script{}, missing("id")
	}
	if in.IsEmpty() {
		return Script{}, bridgeerr.New(bridgeerr.MissingRequiredField, "update names no fields to change")
	}
	p := map[string]any{}
	if in.Name != nil {
		p["name"] = *in.Name
	}
	if in.Note != nil {
		p["note"] = *in.Note
	}
	if in.Status != nil {
		if !validProjectStatus(*in.Status) {
			return Script{}, bridgeerr.Newf(bridgeerr.InvalidValue, "unknown project status %q", *in.Status)
		}
		p["status"] = *in.Status
	}
	if in.Flagged != nil {
		p["flagged"] = *in.Flagged
	}
	if in.Sequential != nil {
		p["sequential"] = *in.Sequential
	}
	if in.FolderName != nil {
		p["folder"] = *in.FolderName
	}
	dateChangeParam(p, "dueDate", in.DueDate)
	dateChangeParam(p, "deferDate", in.DeferDate)
	if ri := in.ReviewInterval; ri != nil {
		if ri.Steps <= 0 {
			return Script{}, bridgeerr.Newf(bridgeerr.InvalidValue, "review interval steps must be positive, got %d", ri.Steps)
		}
		p["reviewInterval"] = map[string]any{"unit": models.NormalizeUnit(ri.Unit), "steps": ri.Steps}
	}
	if in.MarkReviewed {
		p["markReviewed"] = true
	}
	return b.bridge(spec{
		name:    "update_project",
		helpers: projectWriteHelpers,
		body: `var P = $CHANGES$;
var p = Project.byIdentifier($ID$);
if (!p) return notFound('project', $ID$);
if ('name' in P) p.name = P.name;
if ('note' in P) p.note = P.note;
if ('status' in P) p.status = toProjectStatus(P.status);
if ('flagged' in P) p.flagged = P.flagged;
if ('sequential' in P) p.sequential = P.sequential;
['dueDate', 'deferDate'].forEach(function (k) {
  if (k in P) p[k] = P[k] === null ? null : parseDate(P[k]);
});
if ('folder' in P) {
  if (P.folder === '') {
    moveSections([p], library.ending);
  } else {
    var folder = findFolderByName(P.folder);
    if (!folder) folder = new Folder(P.folder, library.ending);
    moveSections([p], folder.ending);
  }
}
if ('reviewInterval' in P) setReviewInterval(p, P.reviewInterval);
if (P.markReviewed) p.lastReviewDate = new Date();
return JSON.stringify({ project: serializeProject(p, false) });`,
		params:  map[string]any{"ID": in.ID, "CHANGES": p},
		mutates: true,
	})
}

// CompleteProject marks a project done.
func (b *Builder) CompleteProject(id string) (Script, error) {
	if strings.TrimSpace(id) == "" {
		return Script{}, missing("id")
	}
	return b.bridge(spec{
		name:    "complete_project",
		helpers: []*helper{hSerializeProject, hNotFound},
		body: `var p = Project.byIdentifier($ID$);
if (!p) return notFound('project', $ID$);
p.markComplete();
return JSON.stringify({ project: serializeProject(p, false) });`,
		params:  map[string]any{"ID": id},
		mutates: true,
	})
}

// DeleteProject drops a project. Its open tasks stay in it, are dropped too,
// or move to the inbox depending on the task action. Nothing is removed.
func (b *Builder) DeleteProject(in models.ProjectDelete) (Script, error) {
	if strings.TrimSpace(in.ID) == "" {
		return Script{}, missing("id")
	}
	action := in.TaskAction
	if action == "" {
		action = models.ProjectTasksKeep
	}
	switch action {
	case models.ProjectTasksKeep, models.ProjectTasksDrop, models.ProjectTasksInbox:
	default:
		return Script{}, bridgeerr.Newf(bridgeerr.InvalidValue, "unknown task action %q", in.TaskAction).
			WithSuggestion("use keep, drop or inbox")
	}
	return b.bridge(spec{
		name:    "delete_project",
		helpers: []*helper{hSafeGet, hNotFound},
		body: `var ACTION = $ACTION$;
var p = Project.byIdentifier($ID$);
if (!p) return notFound('project', $ID$);
var name = safeGet(function () { return p.name; }, '');
var open = [];
var all = safeGet(function () { return p.flattenedTasks; }, []);
for (var i = 0; i < all.length; i++) {
  if (!safeGet(function () { return all[i].completed; }, true)) open.push(all[i]);
}
if (ACTION === 'drop') {
  open.forEach(function (t) { t.drop(true); });
} else if (ACTION === 'inbox') {
  var top = safeGet(function () { return p.tasks; }, []).filter(function (t) {
    return !safeGet(function () { return t.completed; }, true);
  });
  moveTasks(top, inbox.ending);
}
p.status = Project.Status.Dropped;
return JSON.stringify({ id: $ID$, name: name, status: 'dropped', taskAction: ACTION, tasksAffected: ACTION === 'keep' ? 0 : open.length });`,
		params:  map[string]any{"ID": in.ID, "ACTION": action},
		mutates: true,
	})
}
