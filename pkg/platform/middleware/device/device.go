// Package device captures coarse client device information (browser, OS)
// from the User-Agent header so audit events can record where a login came
// from. Nothing here is used for authorization decisions.
package device

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// Info is the parsed device summary carried in the request context.
type Info struct {
	Browser string
	OS      string
}

type contextKeyInfo struct{}

// GetInfo retrieves the device info from the context.
func GetInfo(ctx context.Context) Info {
	if info, ok := ctx.Value(contextKeyInfo{}).(Info); ok {
		return info
	}
	return Info{}
}

// WithInfo injects device info into a context. Useful for service unit tests
// that don't run the full HTTP middleware chain.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, contextKeyInfo{}, info)
}

// Capture parses the User-Agent header and stores the summary in the request
// context.
func Capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())
		browser, version := ua.Browser()
		if version != "" {
			browser = browser + "/" + version
		}
		ctx := WithInfo(r.Context(), Info{
			Browser: browser,
			OS:      ua.OS(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
