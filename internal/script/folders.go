package script

import "strings"

// ListFolders returns every folder with its depth and direct contents.
func (b *Builder) ListFolders() (Script, error) {
	return b.bridge(spec{
		name:    "list_folders",
		helpers: []*helper{hSerializeFolder},
		body: `var out = [];
var all = flattenedFolders;
for (var i = 0; i < all.length; i++) {
  var o = serializeFolder(all[i]);
  if (o) out.push(o);
}
return JSON.stringify({ folders: out });`,
		bulk: true,
	})
}

// CreateFolder adds a folder at the top level or inside parentName.
func (b *Builder) CreateFolder(name, parentName string) (Script, error) {
	if strings.TrimSpace(name) == "" {
		return Script{}, missing("name")
	}
	return b.bridge(spec{
		name:    "create_folder",
		helpers: []*helper{hSerializeFolder, hFindProject, hNotFound},
		body: `var P = $FOLDER$;
var position = library.ending;
if (P.parent) {
  var parent = findFolderByName(P.parent);
  if (!parent) return notFound('folder', P.parent);
  position = parent.ending;
}
var f = new Folder(P.name, position);
return JSON.stringify({ folder: serializeFolder(f) });`,
		params:  map[string]any{"FOLDER": map[string]any{"name": name, "parent": parentName}},
		mutates: true,
	})
}
