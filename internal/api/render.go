package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"rentacars/internal/auth"
	"rentacars/internal/service"
	"rentacars/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageLabels = map[service.Page]string{
	service.PageLogin:     "Iniciar sesión",
	service.PageRegister:  "Registrarse",
	service.PageCustomers: "Clientes",
	service.PageVehicles:  "Vehículos",
	service.PageRentals:   "Rentas",
}

// pageData is the root value of every template.
type pageData struct {
	Title         string
	Pages         []service.Page
	Current       service.Page
	Authenticated bool
	User          string
	Flashes       []auth.Flash
	Error         string
	Form          map[string]string
	View          *service.View
}

// fieldValue is what the "field" template renders.
type fieldValue struct {
	ID        string
	Field     service.Field
	Value     string
	InputType string
	Options   []service.Option
}

func inputFor(prefix string, f service.Field, d service.Draft) fieldValue {
	fv := fieldValue{
		ID:        prefix + "-" + f.Name,
		Field:     f,
		Value:     d.Get(f.Name),
		InputType: string(f.Type),
		Options:   f.Options,
	}
	if f.Type != service.FieldSelect {
		return fv
	}
	if len(f.Options) == 0 {
		// Lookup failed; fall back to typing the id.
		fv.InputType = string(service.FieldText)
		return fv
	}
	found := fv.Value == ""
	for _, o := range f.Options {
		if o.Value == fv.Value {
			found = true
			break
		}
	}
	if !found {
		fv.Options = append([]service.Option{{Value: fv.Value, Label: utils.ShortID(fv.Value)}}, f.Options...)
	}
	return fv
}

var templateFuncs = template.FuncMap{
	"pageLabel": func(p service.Page) string {
		if l, ok := pageLabels[p]; ok {
			return l
		}
		return string(p)
	},
	"input":   inputFor,
	"checked": utils.ParseBool,
	"colspan": func(cols []string) int { return len(cols) + 2 },
}

type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.New("console").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// HTML renders the named template into a buffer first, so a template error
// never leaves a half-written page.
func (rd *Renderer) HTML(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := rd.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		rd.logger.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// page collects the shell state shared by every template.
func page(w http.ResponseWriter, r *http.Request, title string) pageData {
	data := pageData{
		Title:   title,
		Flashes: auth.Flashes(w, r),
		Form:    map[string]string{},
	}
	shell, ok := auth.ShellFrom(r.Context())
	if !ok {
		return data
	}
	data.Pages = shell.Pages()
	data.Current = shell.Page()
	if s, ok := shell.Session(); ok {
		data.Authenticated = true
		data.User = s.UserID
	}
	return data
}
