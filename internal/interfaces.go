package internal

import "context"

// Resolver turns a hosting page URL into a direct, fetchable file URL,
// possibly after solving a captcha or waiting out an availability window.
// Implementations report failures as *HosterError.
type Resolver interface {
	// Name is the module name used for capability lookup and logging.
	Name() string
	// CanHandle reports whether this module's URL patterns match the URL.
	CanHandle(url string) bool
	// Resolve produces the direct URL, accumulating cookies in the jar file.
	Resolve(ctx context.Context, jarPath string, url string) (*ResolveOutcome, error)
}

// RateLimiter controls bandwidth usage across all active transfers.
type RateLimiter interface {
	Wait(ctx context.Context, n int) error
	SetRate(bytesPerSecond int64)
}
