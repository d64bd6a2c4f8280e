package session

import (
	"net/http"
	"time"
)

// Cookie reads and writes the session cookie. The cookie value is the signed
// session token; HttpOnly keeps it away from page scripts.
type Cookie struct {
	name   string
	secure bool
	ttl    time.Duration
}

func NewCookie(name string, secure bool, ttl time.Duration) *Cookie {
	return &Cookie{name: name, secure: secure, ttl: ttl}
}

// Write sets the session cookie carrying token.
func (c *Cookie) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session token from the request, if present.
func (c *Cookie) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear expires the session cookie client-side. Sessions are stateless, so
// this is the whole of revocation.
func (c *Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
