package models

// MergeTasks concatenates task lists, keeping only the first occurrence of each id.
func MergeTasks(lists ...[]Task) []Task {
	seen := make(map[string]struct{})
	var merged []Task
	for _, list := range lists {
		for _, t := range list {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}
