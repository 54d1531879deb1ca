package downloader

import (
	"fmt"
	"strings"
	"sync"

	"plowdown/internal"
	"plowdown/utils"
)

// Annotator records per-link outcomes back into the source link-list file,
// or to standard output for links given directly on the command line.
// Writes to shared files are serialized so concurrent workers never
// interleave line rewrites.
type Annotator struct {
	fileOps *utils.FileOperations
	mutex   sync.Mutex

	// Stdout is swappable for tests.
	Stdout func(format string, args ...interface{})
}

// NewAnnotator creates an annotator.
func NewAnnotator() *Annotator {
	return &Annotator{
		fileOps: utils.NewFileOperations(),
		Stdout: func(format string, args ...interface{}) {
			fmt.Printf(format, args...)
		},
	}
}

// MarkQueue annotates the link's source line with a tag and optional suffix.
// No-op when marking was not requested. For file-sourced links the matching
// line is rewritten in place as "#TAG <original line>[ suffix]" via an
// atomic temp-file-then-rename; an unwritable file logs a warning but never
// aborts the pipeline. For bare-URL links the mark goes to standard output.
func (a *Annotator) MarkQueue(item internal.LinkItem, enabled bool, tag, suffix string) {
	if !enabled || tag == "" {
		return
	}

	if item.Kind == internal.LinkDirect || item.SourceFile == "" {
		a.Stdout("#%s %s\n", tag, item.URL)
		return
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.fileOps.IsWritable(item.SourceFile) {
		internal.LogWarn("cannot mark link in %s: file not writable", item.SourceFile)
		return
	}

	lines, err := a.fileOps.ReadLines(item.SourceFile)
	if err != nil {
		internal.LogWarn("cannot mark link in %s: %v", item.SourceFile, err)
		return
	}

	// Locate by exact original text. If the line was already rewritten by
	// an earlier run it no longer matches and the mark is skipped.
	found := false
	for i, line := range lines {
		if line != item.RawLine {
			continue
		}
		marked := fmt.Sprintf("#%s %s", tag, line)
		if suffix != "" {
			marked += " " + suffix
		}
		lines[i] = marked
		found = true
		break
	}

	if !found {
		internal.LogWarn("line for %s not found in %s, skipping mark", item.URL, item.SourceFile)
		return
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := a.fileOps.WriteFileAtomic(item.SourceFile, []byte(content), 0644); err != nil {
		internal.LogWarn("failed to rewrite %s: %v", item.SourceFile, err)
	}
}

// MarkDownloaded records a successful download, annotating the line with the
// local path of the retrieved file.
func (a *Annotator) MarkDownloaded(item internal.LinkItem, enabled bool, localPath string) {
	if !enabled {
		return
	}

	if item.Kind == internal.LinkDirect || item.SourceFile == "" {
		a.Stdout("# %s\n", localPath)
		return
	}
	a.MarkQueue(item, enabled, "OK", localPath)
}
