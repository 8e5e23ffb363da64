package script

// Helper snippets. Each is embedded only into scripts that need it. Snippets
// must never contain placeholder syntax.

var hSafeGet = &helper{name: "safeGet", src: `
function safeGet(fn, dflt) {
  try {
    var v = fn();
    return (v === undefined || v === null) ? dflt : v;
  } catch (e) {
    return dflt;
  }
}`}

var hFmtDate = &helper{name: "fmtDate", src: `
function pad2(n) { return (n < 10 ? '0' : '') + n; }
function fmtDate(d) {
  if (!d) return null;
  try {
    return d.getFullYear() + '-' + pad2(d.getMonth() + 1) + '-' + pad2(d.getDate()) +
      ' ' + pad2(d.getHours()) + ':' + pad2(d.getMinutes());
  } catch (e) {
    return null;
  }
}`}

var hSafeGetDate = &helper{name: "safeGetDate", deps: []*helper{hSafeGet, hFmtDate}, src: `
function safeGetDate(fn) { return fmtDate(safeGet(fn, null)); }`}

var hParseDate = &helper{name: "parseDate", src: `
function parseDate(s) {
  if (s === null || s === undefined || s === '') return null;
  var m = /^(\d{4})-(\d{2})-(\d{2})(?:[ T](\d{2}):(\d{2}))?/.exec(String(s));
  if (!m) return null;
  return new Date(+m[1], +m[2] - 1, +m[3], m[4] ? +m[4] : 0, m[5] ? +m[5] : 0, 0, 0);
}`}

var hStartOfToday = &helper{name: "startOfToday", src: `
var startOfToday = (function () { var d = new Date(); d.setHours(0, 0, 0, 0); return d; })();`}

var hInRange = &helper{name: "inRange", src: `
function inRange(d, before, after) {
  if (!before && !after) return true;
  if (!d) return false;
  if (before && !(d.getTime() < before.getTime())) return false;
  if (after && !(d.getTime() > after.getTime())) return false;
  return true;
}`}

// Bridge (OmniJS) object helpers.

var hSafeGetTags = &helper{name: "safeGetTags", deps: []*helper{hSafeGet}, src: `
function safeGetTags(o) {
  var tags = safeGet(function () { return o.tags; }, []);
  var out = [];
  for (var i = 0; i < tags.length; i++) {
    var n = safeGet(function () { return tags[i].name; }, null);
    if (n !== null) out.push(n);
  }
  return out;
}`}

var hSafeGetProject = &helper{name: "safeGetProject", deps: []*helper{hSafeGet}, src: `
function safeGetProject(t) {
  var p = safeGet(function () { return t.containingProject; }, null);
  if (!p) return null;
  var id = safeGet(function () { return p.id.primaryKey; }, null);
  if (!id) return null;
  return { id: id, name: safeGet(function () { return p.name; }, '') };
}`}

var hTaskStatus = &helper{name: "taskStatus", deps: []*helper{hSafeGet}, src: `
function taskStatus(t) {
  var s = safeGet(function () { return t.taskStatus; }, null);
  if (s === null) return 'unknown';
  if (s === Task.Status.Completed) return 'completed';
  if (s === Task.Status.Dropped) return 'dropped';
  if (s === Task.Status.Blocked) return 'blocked';
  if (s === Task.Status.Overdue) return 'overdue';
  if (s === Task.Status.DueSoon) return 'dueSoon';
  if (s === Task.Status.Next) return 'next';
  if (s === Task.Status.Available) return 'available';
  return 'unknown';
}
function isAvailableStatus(s) {
  return s === 'available' || s === 'next' || s === 'dueSoon' || s === 'overdue';
}`}

var hRuleInfo = &helper{name: "ruleInfo", deps: []*helper{hSafeGet}, src: `
function ruleInfo(t) {
  var r = safeGet(function () { return t.repetitionRule; }, null);
  if (!r) return null;
  var method = 'fixed';
  try {
    if (r.method === Task.RepetitionMethod.DueDate) method = 'due-after-completion';
    else if (r.method === Task.RepetitionMethod.DeferUntilDate) method = 'start-after-completion';
    else if (r.method === Task.RepetitionMethod.None) method = 'none';
  } catch (e) {}
  return {
    ruleString: safeGet(function () { return r.ruleString; }, ''),
    method: method,
    anchor: safeGet(function () { return r.anchorDateKey ? String(r.anchorDateKey.name || r.anchorDateKey) : null; }, null)
  };
}`}

var hSerializeTask = &helper{name: "serializeTask",
	deps: []*helper{hSafeGet, hSafeGetDate, hSafeGetTags, hSafeGetProject, hTaskStatus, hRuleInfo},
	src: `
function serializeTask(t, details) {
  var id = safeGet(function () { return t.id.primaryKey; }, null);
  if (!id) return null;
  var status = taskStatus(t);
  var proj = safeGetProject(t);
  var parent = safeGet(function () { return t.parent; }, null);
  var parentId = parent ? safeGet(function () { return parent.id.primaryKey; }, null) : null;
  if (proj && parentId === proj.id) parentId = null;
  var o = {
    id: id,
    name: safeGet(function () { return t.name; }, ''),
    completed: safeGet(function () { return t.completed; }, false),
    flagged: safeGet(function () { return t.flagged; }, false),
    dropped: status === 'dropped',
    blocked: status === 'blocked',
    available: isAvailableStatus(status),
    inInbox: safeGet(function () { return t.inInbox; }, false),
    project: proj ? proj.name : null,
    projectId: proj ? proj.id : null,
    parentId: parentId,
    tags: safeGetTags(t),
    dueDate: safeGetDate(function () { return t.dueDate; }),
    deferDate: safeGetDate(function () { return t.deferDate; }),
    plannedDate: safeGetDate(function () { return t.plannedDate; }),
    completionDate: safeGetDate(function () { return t.completionDate; }),
    estimatedMinutes: safeGet(function () { return t.estimatedMinutes; }, null),
    repetitionRule: ruleInfo(t)
  };
  if (details || o.repetitionRule) {
    o.added = safeGetDate(function () { return t.added; });
  }
  if (details) {
    o.note = safeGet(function () { return t.note; }, '');
    o.modified = safeGetDate(function () { return t.modified; });
    o.dropDate = safeGetDate(function () { return t.dropDate; });
  }
  return o;
}`}

var hProjectStatus = &helper{name: "projectStatus", deps: []*helper{hSafeGet}, src: `
function projectStatus(p) {
  var s = safeGet(function () { return p.status; }, null);
  if (s === Project.Status.OnHold) return 'onHold';
  if (s === Project.Status.Dropped) return 'dropped';
  if (s === Project.Status.Done) return 'done';
  return 'active';
}
function toProjectStatus(name) {
  if (name === 'onHold') return Project.Status.OnHold;
  if (name === 'dropped') return Project.Status.Dropped;
  if (name === 'done') return Project.Status.Done;
  return Project.Status.Active;
}`}

var hSerializeProject = &helper{name: "serializeProject",
	deps: []*helper{hSafeGet, hSafeGetDate, hProjectStatus, hTaskStatus},
	src: `
function serializeProject(p, counts) {
  var id = safeGet(function () { return p.id.primaryKey; }, null);
  if (!id) return null;
  var folder = safeGet(function () { return p.parentFolder; }, null);
  var ri = safeGet(function () { return p.reviewInterval; }, null);
  var o = {
    id: id,
    name: safeGet(function () { return p.name; }, ''),
    note: safeGet(function () { return p.note; }, ''),
    status: projectStatus(p),
    flagged: safeGet(function () { return p.flagged; }, false),
    sequential: safeGet(function () { return p.sequential; }, false),
    folder: folder ? safeGet(function () { return folder.name; }, null) : null,
    folderId: folder ? safeGet(function () { return folder.id.primaryKey; }, null) : null,
    dueDate: safeGetDate(function () { return p.dueDate; }),
    deferDate: safeGetDate(function () { return p.deferDate; }),
    completionDate: safeGetDate(function () { return p.completionDate; }),
    lastReviewDate: safeGetDate(function () { return p.lastReviewDate; }),
    nextReviewDate: safeGetDate(function () { return p.nextReviewDate; }),
    reviewInterval: ri ? { unit: safeGet(function () { return ri.unit; }, 'weeks'), steps: safeGet(function () { return ri.steps; }, 1) } : null
  };
  if (counts) {
    var tasks = safeGet(function () { return p.flattenedTasks; }, []);
    var c = { total: 0, available: 0, completed: 0 };
    for (var i = 0; i < tasks.length; i++) {
      c.total++;
      var st = taskStatus(tasks[i]);
      if (st === 'completed') c.completed++;
      else if (isAvailableStatus(st)) c.available++;
    }
    o.taskCounts = c;
  }
  return o;
}`}

var hSerializeTag = &helper{name: "serializeTag", deps: []*helper{hSafeGet}, src: `
function serializeTag(g) {
  var id = safeGet(function () { return g.id.primaryKey; }, null);
  if (!id) return null;
  var parent = safeGet(function () { return g.parent; }, null);
  var kids = safeGet(function () { return g.children; }, []);
  var children = [];
  for (var i = 0; i < kids.length; i++) {
    var n = safeGet(function () { return kids[i].name; }, null);
    if (n !== null) children.push(n);
  }
  return {
    id: id,
    name: safeGet(function () { return g.name; }, ''),
    parent: parent ? safeGet(function () { return parent.name; }, null) : null,
    children: children,
    allowsNextAction: safeGet(function () { return g.allowsNextAction; }, true),
    availableTaskCount: safeGet(function () { return g.availableTasks.length; }, 0)
  };
}`}

var hSerializeFolder = &helper{name: "serializeFolder", deps: []*helper{hSafeGet}, src: `
function folderDepth(f) {
  var d = 0;
  var p = safeGet(function () { return f.parent; }, null);
  while (p && d < 64) {
    d++;
    var cur = p;
    p = safeGet(function () { return cur.parent; }, null);
  }
  return d;
}
function serializeFolder(f) {
  var id = safeGet(function () { return f.id.primaryKey; }, null);
  if (!id) return null;
  var parent = safeGet(function () { return f.parent; }, null);
  var names = function (xs) {
    var out = [];
    for (var i = 0; i < xs.length; i++) {
      var n = safeGet(function () { return xs[i].name; }, null);
      if (n !== null) out.push(n);
    }
    return out;
  };
  var st = safeGet(function () { return f.status; }, null);
  return {
    id: id,
    name: safeGet(function () { return f.name; }, ''),
    status: st === Folder.Status.Dropped ? 'dropped' : 'active',
    depth: folderDepth(f),
    parent: parent ? safeGet(function () { return parent.name; }, null) : null,
    children: names(safeGet(function () { return f.folders; }, [])),
    projects: names(safeGet(function () { return f.projects; }, []))
  };
}`}

// Tag bridge helpers: tag assignment is only reliable through the bridge.
var hTagBridge = &helper{name: "tagBridge", deps: []*helper{hSafeGet}, src: `
function findTag(name) {
  var all = flattenedTags;
  var lower = String(name).toLowerCase();
  for (var i = 0; i < all.length; i++) {
    if (safeGet(function () { return all[i].name.toLowerCase(); }, '') === lower) return all[i];
  }
  return null;
}
function findOrCreateTag(name) {
  var g = findTag(name);
  return g ? g : new Tag(name, tags.ending);
}
function addTagsByName(t, names) {
  for (var i = 0; i < names.length; i++) t.addTag(findOrCreateTag(names[i]));
}
function removeTagsByName(t, names) {
  for (var i = 0; i < names.length; i++) {
    var g = findTag(names[i]);
    if (g) t.removeTag(g);
  }
}`}

var hRepetition = &helper{name: "repetition", src: `
function makeRule(spec) {
  if (!spec) return null;
  var method = Task.RepetitionMethod.Fixed;
  if (spec.method === 'due-after-completion') method = Task.RepetitionMethod.DueDate;
  else if (spec.method === 'start-after-completion') method = Task.RepetitionMethod.DeferUntilDate;
  return new Task.RepetitionRule(spec.ruleString, method);
}`}

// Direct (JXA) helpers. Properties are functions in the scripting dictionary.

var hJxaTask = &helper{name: "jxaTask", deps: []*helper{hSafeGet, hSafeGetDate}, src: `
function jxaTags(t) {
  var tags = safeGet(function () { return t.tags(); }, []);
  var out = [];
  for (var i = 0; i < tags.length; i++) {
    var n = safeGet(function () { return tags[i].name(); }, null);
    if (n !== null) out.push(n);
  }
  return out;
}
function jxaRule(t) {
  var r = safeGet(function () { return t.repetitionRule(); }, null);
  if (!r) return null;
  return { ruleString: r.recurrence || '', method: String(r.repetitionMethod || 'fixed') };
}
function jxaTask(t) {
  var id = safeGet(function () { return t.id(); }, null);
  if (!id) return null;
  var proj = safeGet(function () { return t.containingProject(); }, null);
  var inInbox = safeGet(function () { return t.inInbox(); }, false);
  var rule = jxaRule(t);
  return {
    id: id,
    name: safeGet(function () { return t.name(); }, ''),
    note: safeGet(function () { return t.note(); }, ''),
    completed: safeGet(function () { return t.completed(); }, false),
    flagged: safeGet(function () { return t.flagged(); }, false),
    dropped: safeGet(function () { return t.dropped(); }, false),
    blocked: safeGet(function () { return t.blocked(); }, false),
    available: !safeGet(function () { return t.blocked(); }, false) && !safeGet(function () { return t.completed(); }, false),
    inInbox: inInbox,
    project: proj && !inInbox ? safeGet(function () { return proj.name(); }, null) : null,
    projectId: proj && !inInbox ? safeGet(function () { return proj.id(); }, null) : null,
    tags: jxaTags(t),
    dueDate: safeGetDate(function () { return t.dueDate(); }),
    deferDate: safeGetDate(function () { return t.deferDate(); }),
    plannedDate: safeGetDate(function () { return t.plannedDate(); }),
    completionDate: safeGetDate(function () { return t.completionDate(); }),
    estimatedMinutes: safeGet(function () { return t.estimatedMinutes(); }, null),
    added: rule ? safeGetDate(function () { return t.creationDate(); }) : null,
    repetitionRule: rule
  };
}
function jxaFindTask(id) {
  try {
    var t = doc.flattenedTasks.byId(id);
    t.id();
    return t;
  } catch (e) {
    return null;
  }
}`}

var hBridgeFindTask = &helper{name: "findTask", src: `
function findTask(id) {
  var t = Task.byIdentifier(id);
  if (!t) {
    var p = Project.byIdentifier(id);
    if (p) t = p.task;
  }
  return t;
}`}
