package script

import (
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// ListTags returns every tag; the filter is applied in the script.
func (b *Builder) ListTags(f models.TagFilter) (Script, error) {
	return b.bridge(spec{
		name:    "list_tags",
		helpers: []*helper{hSerializeTag},
		body: `var F = $FILTER$;
var out = [];
var all = flattenedTags;
for (var i = 0; i < all.length; i++) {
  var o = serializeTag(all[i]);
  if (!o) continue;
  if (F.topLevelOnly && o.parent !== null) continue;
  if (F.search && o.name.toLowerCase().indexOf(F.search) === -1) continue;
  out.push(o);
}
return JSON.stringify({ tags: out });`,
		params: map[string]any{"FILTER": map[string]any{
			"search":       strings.ToLower(f.Search),
			"topLevelOnly": f.TopLevelOnly,
		}},
		bulk: true,
	})
}

// ManageTag builds the script for one tag mutation.
func (b *Builder) ManageTag(op models.TagOperation) (Script, error) {
	if strings.TrimSpace(op.Name) == "" {
		return Script{}, missing("name")
	}
	var body string
	switch op.Action {
	case models.TagActionCreate:
		body = `var parent = OP.parentName ? findTag(OP.parentName) : null;
if (OP.parentName && !parent) return notFound('tag', OP.parentName);
var existing = findTag(OP.name);
if (existing) return JSON.stringify({ tag: serializeTag(existing), created: false });
var g = new Tag(OP.name, parent ? parent.ending : tags.ending);
return JSON.stringify({ tag: serializeTag(g), created: true });`
	case models.TagActionRename:
		if strings.TrimSpace(op.NewName) == "" {
			return Script{}, missing("newName")
		}
		body = `var g = findTag(OP.name);
if (!g) return notFound('tag', OP.name);
g.name = OP.newName;
return JSON.stringify({ tag: serializeTag(g) });`
	case models.TagActionDelete:
		body = `var g = findTag(OP.name);
if (!g) return notFound('tag', OP.name);
deleteObject(g);
return JSON.stringify({ deleted: OP.name });`
	case models.TagActionSetParent:
		body = `var g = findTag(OP.name);
if (!g) return notFound('tag', OP.name);
var position = tags.ending;
if (OP.parentName) {
  var parent = findTag(OP.parentName);
  if (!parent) return notFound('tag', OP.parentName);
  position = parent.ending;
}
moveTags([g], position);
return JSON.stringify({ tag: serializeTag(g) });`
	default:
		return Script{}, bridgeerr.Newf(bridgeerr.InvalidValue, "unknown tag action %q", op.Action).
			WithSuggestion("use create, rename, delete or nest")
	}
	return b.bridge(spec{
		name:    "manage_tag_" + op.Action,
		helpers: []*helper{hSerializeTag, hTagBridge, hNotFound},
		body:    "var OP = $OP$;\n" + body,
		params: map[string]any{"OP": map[string]any{
			"name":       op.Name,
			"newName":    op.NewName,
			"parentName": op.ParentName,
		}},
		mutates: true,
	})
}
