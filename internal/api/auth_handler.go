package api

import (
	"net/http"

	"rentacars/internal/auth"
	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
	"rentacars/internal/service"
)

type AuthHandler struct {
	render *Renderer
}

func NewAuthHandler(render *Renderer) *AuthHandler {
	return &AuthHandler{render: render}
}

// Home sends the browser to the current page of its shell.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	shell, ok := auth.ShellFrom(r.Context())
	if !ok || !shell.Authenticated() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/"+string(shell.Page()), http.StatusSeeOther)
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	shell, ok := auth.ShellFrom(r.Context())
	if ok && shell.Authenticated() {
		http.Redirect(w, r, "/"+string(shell.Page()), http.StatusSeeOther)
		return
	}
	if ok {
		shell.Navigate(service.PageLogin)
	}
	h.render.HTML(w, http.StatusOK, "login", page(w, r, "Iniciar sesión"))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	shell, ok := auth.ShellFrom(r.Context())
	if !ok {
		http.Error(w, "Sesión no disponible", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulario inválido", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")

	if err := shell.Login(r.Context(), username, r.PostForm.Get("password")); err != nil {
		data := page(w, r, "Iniciar sesión")
		data.Error = err.Error()
		data.Form["username"] = username
		h.render.HTML(w, statusFor(err), "login", data)
		return
	}
	http.Redirect(w, r, "/"+string(shell.Page()), http.StatusSeeOther)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	shell, ok := auth.ShellFrom(r.Context())
	if ok && shell.Authenticated() {
		http.Redirect(w, r, "/"+string(shell.Page()), http.StatusSeeOther)
		return
	}
	if ok {
		shell.Navigate(service.PageRegister)
	}
	h.render.HTML(w, http.StatusOK, "register", page(w, r, "Registrarse"))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	shell, ok := auth.ShellFrom(r.Context())
	if !ok {
		http.Error(w, "Sesión no disponible", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulario inválido", http.StatusBadRequest)
		return
	}
	req := entities.RegisterRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Rol:      r.PostForm.Get("rol"),
	}

	msg, err := shell.Register(r.Context(), req)
	if err != nil {
		data := page(w, r, "Registrarse")
		data.Error = err.Error()
		data.Form["username"] = req.Username
		data.Form["rol"] = req.Rol
		h.render.HTML(w, statusFor(err), "register", data)
		return
	}
	shell.Navigate(service.PageLogin)
	auth.AddFlash(w, r, auth.FlashSuccess, msg)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout only clears the console session; the API has nothing to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if shell, ok := auth.ShellFrom(r.Context()); ok {
		shell.Logout()
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// statusFor maps an API error to the status of the page that reports it.
func statusFor(err error) int {
	he, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch he.Kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindTransport, apperrors.KindResponse:
		return http.StatusBadGateway
	}
	if he.Code >= 400 && he.Code < 500 {
		return he.Code
	}
	return http.StatusBadGateway
}
