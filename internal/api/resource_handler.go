package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"rentacars/internal/auth"
	"rentacars/internal/service"
)

// ResourceHandler serves the list-editor pages. Actions answer with a
// redirect to the page; their outcome is kept in the editor notice.
type ResourceHandler struct {
	render *Renderer
	logger *slog.Logger
}

func NewResourceHandler(render *Renderer, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{render: render, logger: logger}
}

func (h *ResourceHandler) editor(w http.ResponseWriter, r *http.Request, reload bool) (service.Editor, bool) {
	shell, ok := auth.ShellFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	p := service.Page(mux.Vars(r)["resource"])
	editor, err := shell.Open(r.Context(), p, reload)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	return editor, true
}

func (h *ResourceHandler) back(w http.ResponseWriter, r *http.Request, editor service.Editor, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		http.Error(w, "Registro no encontrado", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Debug("console action failed", "resource", editor.Name(), "error", err)
	}
	http.Redirect(w, r, "/"+editor.Name(), http.StatusSeeOther)
}

func (h *ResourceHandler) Show(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, r.URL.Query().Get("reload") == "1")
	if !ok {
		return
	}
	view := editor.View()
	data := page(w, r, view.Title)
	data.View = &view
	h.render.HTML(w, http.StatusOK, "resource", data)
}

func (h *ResourceHandler) ToggleCreate(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, false)
	if !ok {
		return
	}
	editor.ToggleCreate()
	h.back(w, r, editor, nil)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, false)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulario inválido", http.StatusBadRequest)
		return
	}
	draft := service.DraftFromValues(editor.View().Fields, r.PostForm.Get)
	h.back(w, r, editor, editor.SubmitCreate(r.Context(), draft))
}

func (h *ResourceHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, false)
	if !ok {
		return
	}
	h.back(w, r, editor, editor.BeginEdit(mux.Vars(r)["id"]))
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, false)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulario inválido", http.StatusBadRequest)
		return
	}
	// A stale form for another row re-enters edit mode on that row first.
	id := mux.Vars(r)["id"]
	if editor.View().EditingID != id {
		if err := editor.BeginEdit(id); err != nil {
			h.back(w, r, editor, err)
			return
		}
	}
	draft := service.DraftFromValues(editor.View().Fields, r.PostForm.Get)
	h.back(w, r, editor, editor.SubmitEdit(r.Context(), draft))
}

func (h *ResourceHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, false)
	if !ok {
		return
	}
	editor.CancelEdit()
	h.back(w, r, editor, nil)
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r, false)
	if !ok {
		return
	}
	h.back(w, r, editor, editor.Delete(r.Context(), mux.Vars(r)["id"]))
}
