package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const sessionName = "tinywiki"

// SessionConfig configures the cookie carrying flash messages.
type SessionConfig struct {
	// Secret authenticates the cookie. A random key is generated when empty,
	// so flashes do not survive a restart.
	Secret       string
	SecureCookie bool
}

func newSessionStore(cfg SessionConfig) *sessions.CookieStore {
	key := []byte(cfg.Secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// addFlash queues msg for the next rendered page.
func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	// A cookie that no longer decodes yields a fresh session.
	session, _ := h.sessions.Get(r, sessionName)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		slog.WarnContext(r.Context(), "save flash failed", slog.String("error", err.Error()))
	}
}

// takeFlashes returns and clears the pending flash messages. It must run
// before the response body is written.
func (h *Handler) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := h.sessions.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		slog.WarnContext(r.Context(), "clear flashes failed", slog.String("error", err.Error()))
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
