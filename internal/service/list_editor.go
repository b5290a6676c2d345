package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"rentacars/internal/entities"
	"rentacars/internal/utils"
)

var (
	ErrNotLoaded     = errors.New("list not loaded")
	ErrNotEditing    = errors.New("no item is being edited")
	ErrItemNotFound  = errors.New("item not found")
	ErrStaleResponse = errors.New("response arrived after the view was closed")
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeCreating
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeCreating:
		return "creating"
	case ModeEditing:
		return "editing"
	default:
		return "idle"
	}
}

// Notice levels, named after the alert styles of the console.
const (
	NoticeDanger  = "danger"
	NoticeSuccess = "success"
)

// Notice targets.
const (
	TargetList   = "list"
	TargetCreate = "create"
	TargetEdit   = "edit"
)

// Notice is a non-blocking message shown next to the form that caused it.
type Notice struct {
	Level   string
	Target  string
	Message string
}

type Row struct {
	ID      string
	ShortID string
	Cells   []string
	Editing bool
}

// View is a read-only snapshot of an editor for rendering.
type View struct {
	Name        string
	Title       string
	Singular    string
	Fields      []Field
	Columns     []string
	Rows        []Row
	Loading     bool
	Loaded      bool
	Mode        Mode
	EditingID   string
	CreateDraft Draft
	EditDraft   Draft
	Notice      *Notice
}

func (v View) Creating() bool { return v.Mode == ModeCreating }

func (v View) Editing() bool { return v.Mode == ModeEditing }

// Editor is the type-erased list-editor used by the shell and the front-ends.
type Editor interface {
	Name() string
	Title() string
	Mount(ctx context.Context, session entities.Session)
	Unmount()
	Loaded() bool
	ToggleCreate()
	SubmitCreate(ctx context.Context, draft Draft) error
	BeginEdit(id string) error
	CancelEdit()
	SubmitEdit(ctx context.Context, draft Draft) error
	Delete(ctx context.Context, id string) error
	View() View
}

// ListEditor keeps one resource collection in sync with the API and manages
// its create and edit forms.
//
// Network calls run without holding the lock. Every mount and unmount bumps
// gen; a response that completes under an older gen is dropped.
type ListEditor[T entities.Entity[T]] struct {
	res    Resource[T]
	logger *slog.Logger

	mu          sync.Mutex
	gen         uint64
	session     entities.Session
	loading     bool
	loaded      bool
	items       []T
	options     map[string][]Option
	mode        Mode
	editingID   string
	createDraft Draft
	editDraft   Draft
	notice      *Notice
}

func NewListEditor[T entities.Entity[T]](res Resource[T], logger *slog.Logger) *ListEditor[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListEditor[T]{
		res:    res,
		logger: logger.With("resource", res.Name),
	}
}

func (e *ListEditor[T]) Name() string  { return e.res.Name }
func (e *ListEditor[T]) Title() string { return e.res.Title }

func (e *ListEditor[T]) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Mount loads the collection and the lookups for session. A failed list
// fetch still ends loaded, with an empty collection and a notice.
func (e *ListEditor[T]) Mount(ctx context.Context, session entities.Session) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.session = session
	e.loading = true
	e.loaded = false
	e.items = nil
	e.options = nil
	e.mode = ModeIdle
	e.editingID = ""
	e.editDraft = nil
	e.createDraft = e.newDraft(session)
	e.notice = nil
	e.mu.Unlock()

	var (
		items   []T
		listErr error
		optMu   sync.Mutex
		options = make(map[string][]Option, len(e.res.Lookups))
	)

	var g errgroup.Group
	g.Go(func() error {
		items, listErr = e.res.Repo.List(ctx, session.Token)
		return nil
	})
	for field, lookup := range e.res.Lookups {
		field, lookup := field, lookup
		g.Go(func() error {
			opts, err := lookup(ctx, session.Token)
			if err != nil {
				e.logger.Warn("lookup failed, leaving options empty", "field", field, "error", err)
				opts = nil
			}
			optMu.Lock()
			options[field] = opts
			optMu.Unlock()
			return nil
		})
	}
	g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.logger.Debug("dropping stale list response")
		return
	}
	e.loading = false
	e.loaded = true
	e.options = options
	if listErr != nil {
		e.logger.Warn("list failed", "error", listErr)
		e.items = []T{}
		e.notice = &Notice{
			Level:   NoticeDanger,
			Target:  TargetList,
			Message: fmt.Sprintf("No se pudo cargar %s: %v", e.res.Title, listErr),
		}
		return
	}
	e.items = items
}

// Unmount invalidates in-flight responses and forgets the session.
func (e *ListEditor[T]) Unmount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.session = entities.Session{}
	e.loading = false
	e.loaded = false
	e.items = nil
	e.options = nil
	e.mode = ModeIdle
	e.editingID = ""
	e.editDraft = nil
	e.createDraft = nil
	e.notice = nil
}

// ToggleCreate opens or closes the create form.
func (e *ListEditor[T]) ToggleCreate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return
	}
	if e.mode == ModeCreating {
		e.mode = ModeIdle
		return
	}
	e.mode = ModeCreating
	e.editingID = ""
	e.editDraft = nil
	if e.createDraft == nil {
		e.createDraft = e.newDraft(e.session)
	}
	e.notice = nil
}

func (e *ListEditor[T]) SubmitCreate(ctx context.Context, draft Draft) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	e.mode = ModeCreating
	e.editingID = ""
	e.editDraft = nil
	e.createDraft = withoutID(draft)
	e.notice = nil
	gen, token := e.gen, e.session.Token
	e.mu.Unlock()

	item, err := e.buildItem(draft)
	if err != nil {
		return e.fail(gen, TargetCreate, err)
	}
	created, err := e.res.Repo.Create(ctx, token, item)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return ErrStaleResponse
	}
	if err != nil {
		e.logger.Warn("create failed", "error", err)
		e.notice = &Notice{Level: NoticeDanger, Target: TargetCreate, Message: err.Error()}
		return err
	}
	e.items = upsert(e.items, created)
	if e.mode == ModeCreating {
		e.mode = ModeIdle
	}
	e.createDraft = e.newDraft(e.session)
	e.notice = &Notice{Level: NoticeSuccess, Target: TargetList, Message: e.res.Singular + " creado"}
	return nil
}

// BeginEdit enters edit mode on id, replacing any other edit in progress.
func (e *ListEditor[T]) BeginEdit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}
	idx := indexOf(e.items, id)
	if idx < 0 {
		return ErrItemNotFound
	}
	draft := e.res.ToDraft(e.items[idx])
	if draft == nil {
		draft = Draft{}
	}
	for _, f := range e.res.Fields {
		if _, ok := draft[f.Name]; !ok {
			draft[f.Name] = ""
		}
	}
	draft[IDField] = id
	e.mode = ModeEditing
	e.editingID = id
	e.editDraft = draft
	e.notice = nil
	return nil
}

func (e *ListEditor[T]) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeEditing {
		return
	}
	e.mode = ModeIdle
	e.editingID = ""
	e.editDraft = nil
	e.notice = nil
}

func (e *ListEditor[T]) SubmitEdit(ctx context.Context, draft Draft) error {
	e.mu.Lock()
	if e.mode != ModeEditing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	id := e.editingID
	d := draft.Clone()
	d[IDField] = id
	e.editDraft = d
	e.notice = nil
	gen, token := e.gen, e.session.Token
	e.mu.Unlock()

	item, err := e.buildItem(draft)
	if err != nil {
		return e.fail(gen, TargetEdit, err)
	}
	updated, err := e.res.Repo.Update(ctx, token, id, item.WithID(id))

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return ErrStaleResponse
	}
	if err != nil {
		e.logger.Warn("update failed", "id", id, "error", err)
		e.notice = &Notice{Level: NoticeDanger, Target: TargetEdit, Message: err.Error()}
		return err
	}
	e.items = replace(e.items, id, updated)
	if e.mode == ModeEditing && e.editingID == id {
		e.mode = ModeIdle
		e.editingID = ""
		e.editDraft = nil
	}
	e.notice = &Notice{Level: NoticeSuccess, Target: TargetList, Message: e.res.Singular + " actualizado"}
	return nil
}

// Delete removes id remotely, then locally. There is no confirmation step.
func (e *ListEditor[T]) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if indexOf(e.items, id) < 0 {
		e.mu.Unlock()
		return ErrItemNotFound
	}
	e.notice = nil
	gen, token := e.gen, e.session.Token
	e.mu.Unlock()

	err := e.res.Repo.Delete(ctx, token, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return ErrStaleResponse
	}
	if err != nil {
		e.logger.Warn("delete failed", "id", id, "error", err)
		e.notice = &Notice{Level: NoticeDanger, Target: TargetList, Message: err.Error()}
		return err
	}
	e.items = remove(e.items, id)
	if e.mode == ModeEditing && e.editingID == id {
		e.mode = ModeIdle
		e.editingID = ""
		e.editDraft = nil
	}
	e.notice = &Notice{Level: NoticeSuccess, Target: TargetList, Message: e.res.Singular + " eliminado"}
	return nil
}

// Items returns a copy of the collection.
func (e *ListEditor[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]T, len(e.items))
	copy(out, e.items)
	return out
}

func (e *ListEditor[T]) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := make([]Field, len(e.res.Fields))
	copy(fields, e.res.Fields)
	for i := range fields {
		if fields[i].Type == FieldSelect {
			fields[i].Options = e.options[fields[i].Name]
		}
	}

	rows := make([]Row, 0, len(e.items))
	for _, item := range e.items {
		id := item.EntityID()
		rows = append(rows, Row{
			ID:      id,
			ShortID: utils.ShortID(id),
			Cells:   e.res.Row(item),
			Editing: e.mode == ModeEditing && id == e.editingID,
		})
	}

	v := View{
		Name:      e.res.Name,
		Title:     e.res.Title,
		Singular:  e.res.Singular,
		Fields:    fields,
		Columns:   e.res.Columns,
		Rows:      rows,
		Loading:   e.loading,
		Loaded:    e.loaded,
		Mode:      e.mode,
		EditingID: e.editingID,
	}
	if e.createDraft != nil {
		v.CreateDraft = e.createDraft.Clone()
	}
	if e.editDraft != nil {
		v.EditDraft = e.editDraft.Clone()
	}
	if e.notice != nil {
		n := *e.notice
		v.Notice = &n
	}
	return v
}

func (e *ListEditor[T]) buildItem(draft Draft) (T, error) {
	if err := ValidateDraft(e.res.Fields, draft); err != nil {
		var zero T
		return zero, err
	}
	return e.res.FromDraft(draft)
}

// fail records a pre-submission failure for the given form.
func (e *ListEditor[T]) fail(gen uint64, target string, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen == e.gen {
		e.notice = &Notice{Level: NoticeDanger, Target: target, Message: err.Error()}
	}
	return err
}

func (e *ListEditor[T]) newDraft(s entities.Session) Draft {
	if e.res.NewDraft != nil {
		return e.res.NewDraft(s)
	}
	d := make(Draft, len(e.res.Fields))
	for _, f := range e.res.Fields {
		d[f.Name] = ""
	}
	return d
}

func withoutID(d Draft) Draft {
	out := d.Clone()
	delete(out, IDField)
	return out
}

func indexOf[T entities.Entity[T]](items []T, id string) int {
	for i, item := range items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

// upsert appends item, or replaces the entry that already has its id.
func upsert[T entities.Entity[T]](items []T, item T) []T {
	return replace(items, item.EntityID(), item)
}

// replace puts item where id was and drops any other copy of item's id.
func replace[T entities.Entity[T]](items []T, id string, item T) []T {
	out := make([]T, 0, len(items)+1)
	placed := false
	for _, it := range items {
		switch it.EntityID() {
		case id:
			if !placed {
				out = append(out, item)
				placed = true
			}
		case item.EntityID():
		default:
			out = append(out, it)
		}
	}
	if !placed {
		out = append(out, item)
	}
	return out
}

func remove[T entities.Entity[T]](items []T, id string) []T {
	out := items[:0:0]
	for _, it := range items {
		if it.EntityID() != id {
			out = append(out, it)
		}
	}
	return out
}
