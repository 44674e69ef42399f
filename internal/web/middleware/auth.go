package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/sheetprep/internal/config"
	"github.com/JonMunkholm/sheetprep/internal/logging"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "X-API-Key"

// authFailure is the body written when a request is refused.
type authFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// APIKeyAuth guards routes with the keys in cfg. When RequireAPIKey is off
// every request passes. A missing key is 401, an unknown key 403.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			switch {
			case key == "":
				refuse(w, r, http.StatusUnauthorized, "AUTH001", "API key required")
			case !isValidAPIKey(key, cfg.APIKeys):
				refuse(w, r, http.StatusForbidden, "AUTH002", "API key not recognized")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func refuse(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	logging.FromContext(r.Context()).Warn("auth: request refused",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"code", code,
	)
	render.Status(r, status)
	render.JSON(w, r, authFailure{
		Error:   http.StatusText(status),
		Message: msg,
		Code:    code,
	})
}

// isValidAPIKey compares key against every configured key in constant time,
// whichever key matches.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, k := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return valid == 1
}
