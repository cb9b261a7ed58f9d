package shared

import "context"

type browserContextKey struct{}

// ContextWithBrowser stores the browser session in context.
func ContextWithBrowser(ctx context.Context, b *Browser) context.Context {
	return context.WithValue(ctx, browserContextKey{}, b)
}

// BrowserFromContext extracts the browser session from context.
func BrowserFromContext(ctx context.Context) *Browser {
	b, _ := ctx.Value(browserContextKey{}).(*Browser)
	return b
}
