package http

import (
	"encoding/json"
	"net/http"

	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	userService ports.UserService
	cookies     *CookieManager
}

func NewAuthHandler(authService ports.AuthService, userService ports.UserService, cookies *CookieManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cookies:     cookies,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User         *domain.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	result, err := h.authService.Register(r.Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeJSON(w, http.StatusCreated, authResponse{
		User:         result.User,
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeJSON(w, http.StatusOK, authResponse{
		User:         result.User,
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Refresh rotates the token pair bound to the refresh cookie. A missing
// or unmatched cookie yields 401 and clears both cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, CodeInvalidRefreshToken, "refresh token not provided")
		return
	}

	result, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.cookies.ClearAuthCookies(w)
		writeDomainError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeJSON(w, http.StatusOK, authResponse{
		User:         result.User,
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Logout clears both cookies. The stored refresh token is cleared best
// effort; the issued access token stays valid until natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		_ = h.authService.Logout(r.Context(), cookie.Value)
	}

	h.cookies.ClearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
