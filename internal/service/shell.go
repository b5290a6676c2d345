package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
	"rentacars/internal/repository"
)

type Page string

const (
	PageLogin     Page = "login"
	PageRegister  Page = "register"
	PageCustomers Page = ResourceCustomers
	PageVehicles  Page = ResourceVehicles
	PageRentals   Page = ResourceRentals
)

var (
	publicPages  = []Page{PageLogin, PageRegister}
	privatePages = []Page{PageCustomers, PageVehicles, PageRentals}
)

var ErrPageNotAllowed = errors.New("page not available in the current session state")

// Shell is the console state of one user: the session, the current page and
// one list-editor per resource page.
type Shell struct {
	auth   repository.AuthRepository
	logger *slog.Logger

	mu        sync.Mutex
	session   *entities.Session
	expiresAt time.Time
	page      Page
	editors   map[Page]Editor
	lastSeen  time.Time
}

func NewShell(auth repository.AuthRepository, logger *slog.Logger, editors ...Editor) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shell{
		auth:     auth,
		logger:   logger,
		page:     PageLogin,
		editors:  make(map[Page]Editor, len(editors)),
		lastSeen: time.Now(),
	}
	for _, e := range editors {
		s.editors[Page(e.Name())] = e
	}
	return s
}

// Login authenticates against the API and switches to the customers page.
func (s *Shell) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperrors.NewValidationError("username", "El usuario es obligatorio")
	}
	if password == "" {
		return apperrors.NewValidationError("password", "La contraseña es obligatoria")
	}

	session, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.logger.Info("login rejected", "username", username, "error", err)
		return err
	}
	claimedUser, expiresAt := tokenClaims(session.Token)
	if session.UserID == "" {
		session.UserID = claimedUser
	}

	// Editors loaded under a previous session hold its token and rows.
	for _, e := range s.allEditors() {
		e.Unmount()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.expiresAt = expiresAt
	s.page = PageCustomers
	s.logger.Info("login", "username", username, "user_id", session.UserID)
	return nil
}

func (s *Shell) allEditors() []Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	editors := make([]Editor, 0, len(s.editors))
	for _, e := range s.editors {
		editors = append(editors, e)
	}
	return editors
}

// Register creates an account. It does not log in.
func (s *Shell) Register(ctx context.Context, req entities.RegisterRequest) (string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Rol == "" {
		req.Rol = entities.RolCliente
	}
	switch {
	case req.Username == "":
		return "", apperrors.NewValidationError("username", "El usuario es obligatorio")
	case req.Password == "":
		return "", apperrors.NewValidationError("password", "La contraseña es obligatoria")
	case req.Rol != entities.RolCliente && req.Rol != entities.RolAdmin:
		return "", apperrors.NewValidationError("rol", "Rol no válido")
	}
	return s.auth.Register(ctx, req)
}

// Logout clears the session locally. The API has no logout endpoint.
func (s *Shell) Logout() {
	s.mu.Lock()
	s.session = nil
	s.expiresAt = time.Time{}
	s.page = PageLogin
	s.mu.Unlock()

	for _, e := range s.allEditors() {
		e.Unmount()
	}
}

func (s *Shell) Session() (entities.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return entities.Session{}, false
	}
	return *s.session, true
}

func (s *Shell) Authenticated() bool {
	_, ok := s.Session()
	return ok
}

func (s *Shell) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Pages lists the pages reachable in the current state.
func (s *Shell) Pages() []Page {
	if s.Authenticated() {
		return append([]Page(nil), privatePages...)
	}
	return append([]Page(nil), publicPages...)
}

// Navigate switches the current page. Leaving a resource page unmounts its editor.
func (s *Shell) Navigate(p Page) error {
	s.mu.Lock()
	allowed := publicPages
	if s.session != nil {
		allowed = privatePages
	}
	ok := false
	for _, a := range allowed {
		if a == p {
			ok = true
			break
		}
	}
	if !ok {
		s.mu.Unlock()
		return ErrPageNotAllowed
	}
	prev := s.page
	s.page = p
	leaving := s.editors[prev]
	s.mu.Unlock()

	if prev != p && leaving != nil {
		leaving.Unmount()
	}
	return nil
}

// Open navigates to a resource page and mounts its editor when it is not
// loaded yet, or when reload is set.
func (s *Shell) Open(ctx context.Context, p Page, reload bool) (Editor, error) {
	if err := s.Navigate(p); err != nil {
		return nil, err
	}
	editor, ok := s.Editor(p)
	if !ok {
		return nil, ErrPageNotAllowed
	}
	session, ok := s.Session()
	if !ok {
		return nil, ErrPageNotAllowed
	}
	if reload || !editor.Loaded() {
		editor.Mount(ctx, session)
	}
	return editor, nil
}

func (s *Shell) Editor(p Page) (Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.editors[p]
	return e, ok
}

func (s *Shell) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Shell) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// TokenExpired reports whether the backend token carried an expiry that has passed.
func (s *Shell) TokenExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && !s.expiresAt.IsZero() && now.After(s.expiresAt)
}
