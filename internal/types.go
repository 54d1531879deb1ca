package internal

import "time"

// LinkKind distinguishes how a link item entered the batch.
type LinkKind int

const (
	// LinkDirect is a URL passed directly on the command line.
	LinkDirect LinkKind = iota
	// LinkFromFile is a URL read from a link-list file.
	LinkFromFile
)

// LinkItem is one user-supplied unit of work. Immutable once created by the
// batch driver's input classification.
type LinkItem struct {
	Kind       LinkKind
	URL        string
	SourceFile string // present iff Kind == LinkFromFile
	RawLine    string // original line text, kept for annotation
}

// ResolveOutcome is the result of invoking a site module: a direct file URL
// plus an optional filename suggested by the hoster.
type ResolveOutcome struct {
	DirectURL         string
	SuggestedFilename string
}

// ModuleCapabilities is per-site static configuration, looked up by module
// name. It is not part of per-link state.
type ModuleCapabilities struct {
	SupportsResume            bool
	NeedsCookieOnFinalRequest bool
}

// FileTarget is the resolved temp/final path pair for one transfer.
// TempPath equals FinalPath unless a temp directory is configured.
type FileTarget struct {
	TempPath  string
	FinalPath string
}

// DownloadOptions carries the per-link knobs the pipeline is invoked with.
// Zero value means: unlimited retries are off (MaxRetries < 0 leaves the
// retry cap unbounded), built-in transfer engine, current directory output.
type DownloadOptions struct {
	MaxRetries      int // 0 = no retry, < 0 = unbounded
	NoExtraWait     bool
	NoOverwrite     bool
	Overwrite       bool // force a fresh transfer, disables resume
	CheckOnly       bool
	MarkQueue       bool
	CaptchaMethod   string
	TempDirectory   string
	OutputDirectory string
	Timeout         time.Duration // overall per-link budget, 0 = none
	RateLimit       int64         // bytes per second, 0 = unlimited
	CookieFile      string        // global cookie file seeding each link's jar
	RunDownload     string        // external command template, empty = built-in engine
	DownloadInfo    string        // echo template instead of transferring
	Quiet           bool
}

// LinkContext is the explicit per-link state threaded through every pipeline
// stage (resolver adapter, retry controller, transfer engine, annotator).
// No stage depends on ambient globals. It lives for exactly one link's
// processing, including all retries, and is discarded afterwards.
type LinkContext struct {
	Item         LinkItem
	ModuleName   string
	Capabilities ModuleCapabilities
	Options      *DownloadOptions

	// CookieJarPath is the file backing this link's cookie jar. Owned
	// exclusively by the attempt loop; removed on every exit path.
	CookieJarPath string

	// Attempts counts resolver invocations that consumed retry budget.
	Attempts int

	// FinalPath is set by the transfer engine on success.
	FinalPath string
}

// LinkResult is what the batch driver records per processed link.
type LinkResult struct {
	Item      LinkItem
	FinalPath string
	Err       *HosterError
}

// ExitCode returns the process exit code for this single link.
func (r *LinkResult) ExitCode() int {
	if r.Err == nil {
		return ExitCodeOK
	}
	return r.Err.Kind.ExitCode()
}
