package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"rentacars/internal/service"
)

const (
	cookieName = "rentacars-session"
	consoleKey = "console_id"
)

// Flash levels match the console alert styles.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

type Flash struct {
	Level   string
	Message string
}

type ctxKey struct{}

type binding struct {
	id     string
	shell  *service.Shell
	cookie *sessions.Session
	logger *slog.Logger
}

// NewCookieStore returns the cookie store for console sessions. An empty
// secret gets a random key, so cookies do not survive a restart.
func NewCookieStore(secret string, maxAge time.Duration, secure bool) *sessions.CookieStore {
	key := []byte(secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// ConsoleSessions binds browser cookies to console shells.
type ConsoleSessions struct {
	cookies sessions.Store
	shells  *service.SessionStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewConsoleSessions(cookies sessions.Store, shells *service.SessionStore, logger *slog.Logger) *ConsoleSessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSessions{cookies: cookies, shells: shells, logger: logger, now: time.Now}
}

// Middleware attaches the request's shell to its context, creating a new
// one when the cookie has none or the old one was swept.
func (c *ConsoleSessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := c.cookies.Get(r, cookieName)
		if err != nil {
			c.logger.Debug("discarding unreadable session cookie", "error", err)
		}

		id, _ := cookie.Values[consoleKey].(string)
		var shell *service.Shell
		ok := false
		if id != "" {
			shell, ok = c.shells.Get(id)
		}
		if !ok {
			id, shell = c.shells.Create()
			cookie.Values[consoleKey] = id
		}
		// Saving on every request slides the cookie expiry along with the idle sweep.
		if err := cookie.Save(r, w); err != nil {
			c.logger.Error("saving session cookie", "error", err)
			http.Error(w, "No se pudo iniciar la sesión", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, &binding{id: id, shell: shell, cookie: cookie, logger: c.logger})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects to /login unless the shell holds a live session.
func (c *ConsoleSessions) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shell, ok := ShellFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if shell.TokenExpired(c.now()) {
			shell.Logout()
			AddFlash(w, r, FlashDanger, "Tu sesión expiró, inicia sesión de nuevo")
		}
		if !shell.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ShellFrom(ctx context.Context) (*service.Shell, bool) {
	b, ok := ctx.Value(ctxKey{}).(*binding)
	if !ok {
		return nil, false
	}
	return b.shell, true
}

// AddFlash queues a message for the next rendered page.
func AddFlash(w http.ResponseWriter, r *http.Request, level, message string) {
	b, ok := r.Context().Value(ctxKey{}).(*binding)
	if !ok {
		return
	}
	b.cookie.AddFlash(message, level)
	if err := b.cookie.Save(r, w); err != nil {
		b.logger.Error("saving flash message", "error", err)
	}
}

// Flashes pops the queued messages. It must run before the response body is written.
func Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	b, ok := r.Context().Value(ctxKey{}).(*binding)
	if !ok {
		return nil
	}
	var out []Flash
	for _, level := range []string{FlashDanger, FlashSuccess} {
		for _, v := range b.cookie.Flashes(level) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Level: level, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := b.cookie.Save(r, w); err != nil {
			b.logger.Error("clearing flash messages", "error", err)
		}
	}
	return out
}
