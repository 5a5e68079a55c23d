package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/tasklist"
)

// DocumentPath is where the task document lives in a storage backend.
const DocumentPath = "tasks.json"

var (
	ErrEmptyText     = errors.New("store: task text is empty")
	ErrSentinelList  = errors.New("store: the all-tasks view cannot own tasks")
	ErrListNotFound  = errors.New("store: list not found")
	ErrTaskNotFound  = errors.New("store: task not found")
	ErrMalformed     = errors.New("store: malformed task document")
	ErrImmutableID   = errors.New("store: task id cannot change")
	ErrDuplicateList = errors.New("store: list name already exists")
	ErrAmbiguousRef  = errors.New("store: task reference is ambiguous")
)

// Saver is told about every mutation. A persist.Coalescer satisfies it.
type Saver interface {
	RequestSave() error
}

// Document is the persisted shape of the store.
type Document struct {
	Lists []model.TaskList `json:"lists"`
	Tasks []model.Task     `json:"tasks"`
}

type Options struct {
	Saver  Saver
	Logger *slog.Logger
	NewID  func() string
}

// TaskStore owns every task and list. Task order in the store is the display
// order: newest first, active tasks before completed ones. It is not safe
// for concurrent use.
type TaskStore struct {
	lists  []model.TaskList
	tasks  []model.Task
	index  map[string]int
	saver  Saver
	logger *slog.Logger
	newID  func() string
}

func New(opts Options) *TaskStore {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &TaskStore{
		index:  make(map[string]int),
		saver:  opts.Saver,
		logger: opts.Logger,
		newID:  opts.NewID,
	}
}

// SetSaver attaches the saver after construction, for savers that need the
// store to serialise.
func (s *TaskStore) SetSaver(saver Saver) {
	s.saver = saver
}

// Load replaces the store's contents with a serialised document. Empty input
// yields an empty store; malformed input leaves the store untouched.
func (s *TaskStore) Load(data []byte) error {
	var doc Document
	if strings.TrimSpace(string(data)) != "" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	for _, l := range doc.Lists {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	index := make(map[string]int, len(doc.Tasks))
	for i, t := range doc.Tasks {
		if t.RecurrenceRule != "" {
			// Hand-edited rules decode leniently; store the canonical form.
			t.RecurrenceRule = model.EncodeRecurrence(model.DecodeRecurrence(t.RecurrenceRule))
			doc.Tasks[i].RecurrenceRule = t.RecurrenceRule
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: task %q: %v", ErrMalformed, t.ID, err)
		}
		if _, dup := index[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %q", ErrMalformed, t.ID)
		}
		index[t.ID] = i
	}
	s.lists = doc.Lists
	s.tasks = doc.Tasks
	s.index = index
	s.Reorder()
	s.logger.Debug("tasks loaded", "lists", len(s.lists), "tasks", len(s.tasks))
	return nil
}

// Marshal serialises the current state.
func (s *TaskStore) Marshal() ([]byte, error) {
	doc := Document{Lists: s.lists, Tasks: s.tasks}
	if doc.Lists == nil {
		doc.Lists = []model.TaskList{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []model.Task{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

func (s *TaskStore) changed() error {
	if s.saver == nil {
		return nil
	}
	return s.saver.RequestSave()
}

func (s *TaskStore) AddList(name string) (model.TaskList, error) {
	name = strings.TrimSpace(name)
	if _, ok := s.ListByName(name); ok {
		return model.TaskList{}, fmt.Errorf("%w: %q", ErrDuplicateList, name)
	}
	list := model.TaskList{ID: s.newID(), Name: name}
	if err := list.Validate(); err != nil {
		return model.TaskList{}, err
	}
	s.lists = append(s.lists, list)
	return list, s.changed()
}

// Lists returns the lists that are not deleted, in creation order.
func (s *TaskStore) Lists() []model.TaskList {
	out := make([]model.TaskList, 0, len(s.lists))
	for _, l := range s.lists {
		if !l.Deleted {
			out = append(out, l)
		}
	}
	return out
}

func (s *TaskStore) List(id string) (model.TaskList, bool) {
	for _, l := range s.lists {
		if l.ID == id && !l.Deleted {
			return l, true
		}
	}
	return model.TaskList{}, false
}

// ListByName finds a live list by case-insensitive name.
func (s *TaskStore) ListByName(name string) (model.TaskList, bool) {
	for _, l := range s.lists {
		if !l.Deleted && strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return model.TaskList{}, false
}

// DeleteList marks the list and all of its tasks deleted.
func (s *TaskStore) DeleteList(id string) error {
	for i := range s.lists {
		if s.lists[i].ID != id || s.lists[i].Deleted {
			continue
		}
		s.lists[i].Deleted = true
		for j := range s.tasks {
			if s.tasks[j].ListID == id {
				s.tasks[j].Deleted = true
			}
		}
		return s.changed()
	}
	return fmt.Errorf("%w: %q", ErrListNotFound, id)
}

// AddTask creates a task at the front of listID. parentID may be empty.
func (s *TaskStore) AddTask(listID, parentID, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	if listID == model.AllListsID {
		return model.Task{}, ErrSentinelList
	}
	if _, ok := s.List(listID); !ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrListNotFound, listID)
	}
	if parentID != "" {
		parent, ok := s.Get(parentID)
		if !ok {
			return model.Task{}, fmt.Errorf("%w: parent %q", ErrTaskNotFound, parentID)
		}
		listID = parent.ListID
	}

	task := model.Task{ID: s.newID(), ListID: listID, ParentID: parentID, Text: text}
	s.tasks = slices.Insert(s.tasks, 0, task)
	s.reindex()
	s.Reorder()
	s.logger.Debug("task added", "id", task.ID, "list", listID)
	return task, s.changed()
}

func (s *TaskStore) Get(id string) (model.Task, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Task{}, false
	}
	return cloneTask(s.tasks[i]), true
}

// Resolve finds a live task by full id or by a unique id prefix.
func (s *TaskStore) Resolve(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, ref)
	}
	if t, ok := s.Get(ref); ok && !t.Deleted {
		return t, nil
	}
	var found []int
	for i, t := range s.tasks {
		if !t.Deleted && strings.HasPrefix(t.ID, ref) {
			found = append(found, i)
		}
	}
	switch len(found) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, ref)
	case 1:
		return cloneTask(s.tasks[found[0]]), nil
	default:
		return model.Task{}, fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguousRef, ref, len(found))
	}
}

// Tasks returns a copy of every task, deleted ones included, in store order.
func (s *TaskStore) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// Children returns the live direct subtasks of id.
func (s *TaskStore) Children(id string) []model.Task {
	var out []model.Task
	for _, t := range s.tasks {
		if t.ParentID == id && !t.Deleted {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

// Visible applies the list or text filter and returns the matching tasks in
// display order.
func (s *TaskStore) Visible(listID, query string) []model.Task {
	var ids []string
	if query == "" {
		ids = tasklist.FilterByList(s.tasks, listID)
	} else {
		ids = tasklist.FilterByText(s.tasks, listID, query)
	}
	out := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneTask(s.tasks[s.index[id]]))
	}
	return out
}

// Update replaces a task's fields. The id cannot change.
func (s *TaskStore) Update(task model.Task) error {
	i, ok := s.index[task.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, task.ID)
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if _, ok := s.List(task.ListID); !ok {
		return fmt.Errorf("%w: %q", ErrListNotFound, task.ListID)
	}
	reorder := s.tasks[i].Completed != task.Completed
	s.tasks[i] = cloneTask(task)
	if reorder {
		s.Reorder()
	}
	return s.changed()
}

func (s *TaskStore) SetCompleted(id string, done bool) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	if s.tasks[i].Completed == done {
		return nil
	}
	s.tasks[i].Completed = done
	s.Reorder()
	return s.changed()
}

func (s *TaskStore) ToggleCompleted(id string) (bool, error) {
	task, ok := s.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return !task.Completed, s.SetCompleted(id, !task.Completed)
}

// SetDates validates and stores both dates. Empty strings clear them.
func (s *TaskStore) SetDates(id, start, due string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	if err := model.ValidateDate(start); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if err := model.ValidateDate(due); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	s.tasks[i].StartDate = start
	s.tasks[i].DueDate = due
	return s.changed()
}

// SetRecurrence stores spec as the task's rule; nil clears it.
func (s *TaskStore) SetRecurrence(id string, spec *model.RecurrenceSpec) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	if spec == nil {
		s.tasks[i].RecurrenceRule = ""
	} else {
		s.tasks[i].RecurrenceRule = model.EncodeRecurrence(*spec)
	}
	return s.changed()
}

// Delete marks the task and all of its descendants deleted.
func (s *TaskStore) Delete(id string) error {
	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	for _, i := range s.subtree(id) {
		s.tasks[i].Deleted = true
	}
	return s.changed()
}

// Trash toggles the trashed flag of the task and its descendants. It returns
// the new state.
func (s *TaskStore) Trash(id string) (bool, error) {
	root, ok := s.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	trashed := !s.tasks[root].Trashed
	for _, i := range s.subtree(id) {
		s.tasks[i].Trashed = trashed
	}
	return trashed, s.changed()
}

// IsCompleted reports the completion flag; unknown ids are not completed.
func (s *TaskStore) IsCompleted(id string) bool {
	i, ok := s.index[id]
	return ok && s.tasks[i].Completed
}

// Sequence lists the ids of live top-level tasks in display order.
func (s *TaskStore) Sequence() []string {
	out := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Deleted && t.ParentID == "" {
			out = append(out, t.ID)
		}
	}
	return out
}

// Reorder moves completed tasks behind active ones, keeping relative order.
func (s *TaskStore) Reorder() int {
	ids := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		ids[i] = t.ID
	}
	moves := tasklist.ReorderByCompletion(ids, s)
	if moves == 0 {
		return 0
	}
	reordered := make([]model.Task, len(ids))
	for i, id := range ids {
		reordered[i] = s.tasks[s.index[id]]
	}
	s.tasks = reordered
	s.reindex()
	return moves
}

func (s *TaskStore) Stats(listID string) tasklist.Completion {
	return tasklist.Stats(s.tasks, listID)
}

func (s *TaskStore) reindex() {
	s.index = make(map[string]int, len(s.tasks))
	for i, t := range s.tasks {
		s.index[t.ID] = i
	}
}

// subtree returns the indexes of id and every descendant.
func (s *TaskStore) subtree(id string) []int {
	out := []int{s.index[id]}
	queue := []string{id}
	seen := map[string]bool{id: true}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for i, t := range s.tasks {
			if t.ParentID == parent && !seen[t.ID] {
				seen[t.ID] = true
				out = append(out, i)
				queue = append(queue, t.ID)
			}
		}
	}
	return out
}

func cloneTask(t model.Task) model.Task {
	t.Tags = slices.Clone(t.Tags)
	return t
}
