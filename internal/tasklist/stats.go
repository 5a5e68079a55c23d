package tasklist

import (
	"fmt"

	"github.com/sandeepkv93/errands/internal/model"
)

type Completion struct {
	Completed int
	Total     int
}

// Subtitle renders the list header line. It is empty when nothing counts.
func (c Completion) Subtitle() string {
	if c.Total == 0 {
		return ""
	}
	return fmt.Sprintf("Completed: %d / %d", c.Completed, c.Total)
}

// Stats counts tasks of listID that are neither deleted nor trashed. The
// sentinel list counts across all lists.
func Stats(tasks []model.Task, listID string) Completion {
	var c Completion
	for _, t := range tasks {
		if t.Deleted || t.Trashed {
			continue
		}
		if listID != model.AllListsID && t.ListID != listID {
			continue
		}
		c.Total++
		if t.Completed {
			c.Completed++
		}
	}
	return c
}
