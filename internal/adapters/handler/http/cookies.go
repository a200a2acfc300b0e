package http

import (
	"net/http"
	"time"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"

	// Both cookies live at the root path; clearing uses the same path,
	// otherwise browsers keep the original cookie around.
	cookiePath = "/"
)

// CookieManager binds token pairs to HTTP-only cookies. Secure is set
// from the production flag at construction.
type CookieManager struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCookieManager(secure bool, accessTTL, refreshTTL time.Duration) *CookieManager {
	return &CookieManager{secure: secure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (c *CookieManager) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, c.cookie(accessTokenCookie, accessToken, int(c.accessTTL.Seconds())))
	http.SetCookie(w, c.cookie(refreshTokenCookie, refreshToken, int(c.refreshTTL.Seconds())))
}

func (c *CookieManager) ClearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(accessTokenCookie, "", -1))
	http.SetCookie(w, c.cookie(refreshTokenCookie, "", -1))
}

func (c *CookieManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cookiePath,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	}
}
