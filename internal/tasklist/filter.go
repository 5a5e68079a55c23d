package tasklist

import (
	"strings"

	"github.com/sandeepkv93/errands/internal/model"
)

// FilterByList returns the ids of tasks visible in listID, in input order.
// The sentinel model.AllListsID shows every task that is not trashed.
func FilterByList(tasks []model.Task, listID string) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.Deleted {
			continue
		}
		if listID == model.AllListsID {
			if !t.Trashed {
				out = append(out, t.ID)
			}
			continue
		}
		if t.ListID == listID {
			out = append(out, t.ID)
		}
	}
	return out
}

// FilterByText returns the ids of tasks in listID whose text, notes or tags
// contain query. Matching is case-sensitive. With the sentinel list every
// list is searched.
func FilterByText(tasks []model.Task, listID, query string) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.Deleted {
			continue
		}
		if listID != model.AllListsID && t.ListID != listID {
			continue
		}
		if matchesText(t, query) {
			out = append(out, t.ID)
		}
	}
	return out
}

func matchesText(t model.Task, query string) bool {
	if strings.Contains(t.Text, query) || strings.Contains(t.Notes, query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return false
}
