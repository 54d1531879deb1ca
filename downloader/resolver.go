package downloader

import (
	"context"
	"strings"

	"plowdown/internal"
	"plowdown/utils"
)

// ResolveFunc is the function a site module exposes: given the link's cookie
// jar and URL, produce a direct file URL and optional suggested filename, or
// fail with a typed *internal.HosterError.
type ResolveFunc func(ctx context.Context, jarPath string, url string) (*internal.ResolveOutcome, error)

// SiteResolver is a resolver module bound to a set of host patterns.
type SiteResolver struct {
	name    string
	hosts   []string
	resolve ResolveFunc
}

// NewSiteResolver builds a resolver module. Host patterns match the URL's
// hostname exactly or as a parent domain ("example.com" matches
// "dl.example.com").
func NewSiteResolver(name string, hosts []string, resolve ResolveFunc) *SiteResolver {
	return &SiteResolver{
		name:    name,
		hosts:   hosts,
		resolve: resolve,
	}
}

// Name returns the module name used for capability lookup and logging.
func (s *SiteResolver) Name() string {
	return s.name
}

// CanHandle reports whether one of the module's host patterns matches.
func (s *SiteResolver) CanHandle(url string) bool {
	host := utils.HostOf(url)
	if host == "" {
		return false
	}
	for _, h := range s.hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Resolve invokes the module's resolve function.
func (s *SiteResolver) Resolve(ctx context.Context, jarPath string, url string) (*internal.ResolveOutcome, error) {
	return s.resolve(ctx, jarPath, url)
}

// NullResolver is the fallback module: it treats the input URL as already
// direct and passes it through untouched. Selected only when no site module
// matches and fallback is enabled.
type NullResolver struct{}

// Name returns the fallback module name.
func (NullResolver) Name() string { return "null" }

// CanHandle accepts any URL; the registry consults it last.
func (NullResolver) CanHandle(url string) bool { return true }

// Resolve passes the URL through as its own direct link.
func (NullResolver) Resolve(ctx context.Context, jarPath string, url string) (*internal.ResolveOutcome, error) {
	return &internal.ResolveOutcome{DirectURL: url}, nil
}

// Registry holds the known resolver modules and their static capabilities,
// and dispatches URLs to the first matching module.
type Registry struct {
	resolvers     []internal.Resolver
	capabilities  map[string]internal.ModuleCapabilities
	allowFallback bool
}

// NewRegistry creates an empty registry. With fallback enabled, URLs no
// module claims are handed to the NullResolver instead of failing.
func NewRegistry(allowFallback bool) *Registry {
	r := &Registry{
		capabilities:  make(map[string]internal.ModuleCapabilities),
		allowFallback: allowFallback,
	}
	// The null module supports plain HTTP resume and needs no cookies.
	r.capabilities["null"] = internal.ModuleCapabilities{SupportsResume: true}
	return r
}

// Register adds a resolver module with its capabilities.
func (r *Registry) Register(resolver internal.Resolver, caps internal.ModuleCapabilities) {
	r.resolvers = append(r.resolvers, resolver)
	r.capabilities[resolver.Name()] = caps
}

// Find returns the module handling the URL. With fallback disabled and no
// match, the error kind is NoModuleFound.
func (r *Registry) Find(url string) (internal.Resolver, error) {
	if err := utils.ValidateURL(url); err != nil {
		return nil, err
	}

	for _, resolver := range r.resolvers {
		if resolver.CanHandle(url) {
			return resolver, nil
		}
	}

	if r.allowFallback {
		return NullResolver{}, nil
	}
	return nil, internal.NewNoModuleError(url)
}

// Capabilities looks up a module's static capabilities by name.
func (r *Registry) Capabilities(name string) internal.ModuleCapabilities {
	return r.capabilities[name]
}

// invokeResolver is the resolver invocation adapter: it calls the module and
// normalizes whatever comes back into either a usable outcome or a typed
// HosterError, so the retry controller sees a uniform result.
func invokeResolver(ctx context.Context, resolver internal.Resolver, lc *internal.LinkContext) (*internal.ResolveOutcome, *internal.HosterError) {
	outcome, err := resolver.Resolve(ctx, lc.CookieJarPath, lc.Item.URL)
	if err != nil {
		return nil, internal.AsHosterError(err)
	}
	if outcome == nil || outcome.DirectURL == "" {
		return nil, internal.NewHosterError(internal.KindFatal, "module returned no direct URL").WithURL(lc.Item.URL)
	}
	return outcome, nil
}
