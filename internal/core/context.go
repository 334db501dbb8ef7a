package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
)

// ContextWithIPAddress records the client IP for log lines written by the service.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent records the client User-Agent.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts the client IP, or "".
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts the client User-Agent, or "".
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
