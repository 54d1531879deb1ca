package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"plowdown/internal"
	"plowdown/utils"
)

// Pipeline wires the per-link stages together: resolver dispatch, the retry
// controller, the transfer engine and the annotator. One pipeline serves a
// whole batch; all per-link state lives in LinkContext.
type Pipeline struct {
	registry  *Registry
	engine    *TransferEngine
	annotator *Annotator
	options   *internal.DownloadOptions

	// Workers > 1 processes independent links concurrently. Each link owns
	// its cookie jar and temp files; annotation writes are serialized by
	// the annotator; the rate limiter is shared across all transfers.
	Workers int
}

// NewPipeline creates a pipeline over a module registry.
func NewPipeline(registry *Registry, engine *TransferEngine, opts *internal.DownloadOptions) *Pipeline {
	return &Pipeline{
		registry:  registry,
		engine:    engine,
		annotator: NewAnnotator(),
		options:   opts,
		Workers:   1,
	}
}

// ClassifyInputs turns the raw command-line items into LinkItems. An item
// naming a readable file is treated as a link-list file and expanded line by
// line; comment lines starting with '#' and blank lines are skipped but stay
// in the file. Anything else is a direct URL.
func (p *Pipeline) ClassifyInputs(inputs []string) ([]internal.LinkItem, error) {
	var items []internal.LinkItem
	fileOps := utils.NewFileOperations()

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil || info.IsDir() {
			items = append(items, internal.LinkItem{
				Kind: internal.LinkDirect,
				URL:  utils.EscapeURI(input),
			})
			continue
		}

		lines, err := fileOps.ReadLines(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read link list %s: %w", input, err)
		}

		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			items = append(items, internal.LinkItem{
				Kind:       internal.LinkFromFile,
				URL:        utils.EscapeURI(trimmed),
				SourceFile: input,
				RawLine:    line,
			})
		}
	}

	return items, nil
}

// ProcessLink runs the full pipeline for one link: resolution with retries,
// then transfer, then annotation. Failures are isolated per link.
func (p *Pipeline) ProcessLink(ctx context.Context, item internal.LinkItem) internal.LinkResult {
	result := internal.LinkResult{Item: item}

	resolver, err := p.registry.Find(item.URL)
	if err != nil {
		herr := internal.AsHosterError(err)
		p.reportFailure(item, herr)
		result.Err = herr
		return result
	}

	jar, jarErr := NewLinkJar(p.options.TempDirectory, p.options.CookieFile)
	if jarErr != nil {
		herr := internal.NewSystemError(jarErr.Error())
		p.reportFailure(item, herr)
		result.Err = herr
		return result
	}
	// The jar is valid for exactly this link; every exit path removes it.
	defer jar.Remove()

	linkCtx := ctx
	if p.options.Timeout > 0 {
		var cancel context.CancelFunc
		linkCtx, cancel = context.WithTimeout(ctx, p.options.Timeout)
		defer cancel()
	}

	lc := &internal.LinkContext{
		Item:          item,
		ModuleName:    resolver.Name(),
		Capabilities:  p.registry.Capabilities(resolver.Name()),
		Options:       p.options,
		CookieJarPath: jar.Path(),
	}

	internal.LogInfo("processing %s with module %q", item.URL, lc.ModuleName)

	outcome, herr := RunWithRetries(linkCtx, resolver, lc)
	if herr != nil {
		p.reportFailure(item, herr)
		result.Err = herr
		return result
	}

	internal.LogDebug("resolved %s -> direct URL obtained", item.URL)

	if p.options.CheckOnly {
		internal.LogInfo("link is alive: %s", item.URL)
		return result
	}

	if p.options.DownloadInfo != "" {
		filename := outcome.SuggestedFilename
		if filename == "" {
			filename = utils.FilenameFromURL(outcome.DirectURL)
		}
		p.annotator.Stdout("%s\n", InterpolateTemplate(p.options.DownloadInfo, outcome.DirectURL, filename, jar.Path()))
		return result
	}

	if p.options.RunDownload != "" {
		if herr := p.runExternal(linkCtx, outcome, jar); herr != nil {
			p.reportFailure(item, herr)
			result.Err = herr
			return result
		}
		return result
	}

	finalPath, herr := p.engine.Transfer(linkCtx, lc, outcome, jar)
	if herr != nil {
		p.reportFailure(item, herr)
		result.Err = herr
		return result
	}

	lc.FinalPath = finalPath
	result.FinalPath = finalPath
	internal.LogInfo("downloaded %s -> %s", item.URL, finalPath)
	p.annotator.MarkDownloaded(item, p.options.MarkQueue, finalPath)
	return result
}

// reportFailure emits the per-kind notice and annotation for a terminal
// failure.
func (p *Pipeline) reportFailure(item internal.LinkItem, herr *internal.HosterError) {
	c := Classify(herr)
	internal.LogError("%s (%s): %s", c.Message, herr.Kind, item.URL)
	p.annotator.MarkQueue(item, p.options.MarkQueue, c.Tag, "")
}

// runExternal hands the transfer to a user-supplied command template instead
// of the built-in engine.
func (p *Pipeline) runExternal(ctx context.Context, outcome *internal.ResolveOutcome, jar *CookieJar) *internal.HosterError {
	filename := outcome.SuggestedFilename
	if filename == "" {
		filename = utils.FilenameFromURL(outcome.DirectURL)
	}

	command := InterpolateTemplate(p.options.RunDownload, outcome.DirectURL, filename, jar.Path())
	internal.LogDebug("running external downloader: %s", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return internal.NewSystemError(fmt.Sprintf("external downloader failed: %v", err))
	}
	return nil
}

// InterpolateTemplate substitutes %url, %filename and %cookies placeholders
// in an external-command or info template.
func InterpolateTemplate(template, url, filename, cookiesPath string) string {
	r := strings.NewReplacer(
		"%url", url,
		"%filename", filename,
		"%cookies", cookiesPath,
	)
	return r.Replace(template)
}

// Run processes every input item and returns the aggregate process exit
// code: 0 when no link failed, the failing link's code when exactly one
// failed, and ExitCodeMultiple plus the first failing code otherwise.
func (p *Pipeline) Run(ctx context.Context, inputs []string) (int, error) {
	items, err := p.ClassifyInputs(inputs)
	if err != nil {
		return internal.ExitCodeFatal, err
	}
	if len(items) == 0 {
		return internal.ExitCodeOK, fmt.Errorf("no links to process")
	}

	results := make([]internal.LinkResult, len(items))

	if p.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.Workers)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				results[i] = p.ProcessLink(gctx, item)
				return nil
			})
		}
		// Workers never return errors; failures live in results.
		_ = g.Wait()
	} else {
		for i, item := range items {
			results[i] = p.ProcessLink(ctx, item)
		}
	}

	return AggregateExitCode(results), nil
}

// AggregateExitCode folds per-link results into the process exit code.
func AggregateExitCode(results []internal.LinkResult) int {
	firstFailure := 0
	failures := 0
	for _, r := range results {
		if code := r.ExitCode(); code != internal.ExitCodeOK {
			failures++
			if firstFailure == 0 {
				firstFailure = code
			}
		}
	}

	switch failures {
	case 0:
		return internal.ExitCodeOK
	case 1:
		return firstFailure
	default:
		return internal.ExitCodeMultiple + firstFailure
	}
}
