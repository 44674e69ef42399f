package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetprep/internal/core"
	"github.com/JonMunkholm/sheetprep/internal/web/middleware"
)

// requestContext carries the client IP into the service so run logs can
// name who uploaded what.
func requestContext(r *http.Request) context.Context {
	return core.ContextWithClientIP(r.Context(), middleware.ClientIP(r))
}
