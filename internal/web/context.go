package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetinspect/internal/core"
	mw "github.com/JonMunkholm/sheetinspect/internal/web/middleware"
)

// WithRequestMetadata adds IP and User-Agent to context for upload logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, mw.ClientIP(r)) // RemoteAddr already rewritten by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
