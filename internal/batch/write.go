package batch

import (
	"fmt"
	"path"
	"strings"

	"github.com/uncaged-coder/vcardtools/internal/atomicfile"
	"github.com/uncaged-coder/vcardtools/internal/filenames"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// Layout selects how a Result is laid out on disk.
type Layout string

const (
	// LayoutMerge writes one file per merged record.
	LayoutMerge Layout = "merge"
	// LayoutGroup writes each multi-record class as a directory holding one
	// file per original record; singletons stay at the top level.
	LayoutGroup Layout = "group"
)

// OutputWriteError reports a failure writing results. Nothing was promoted.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

// WriteOptions configures WriteDir.
type WriteOptions struct {
	Encoder vcard.Encoder
	Layout  Layout
	// Names names member files in LayoutGroup.
	Names filenames.Policy
	// Transform, when set, rewrites each file's bytes before they are staged.
	Transform func(name string, data []byte) []byte
}

// File is one planned output file, relative to the output directory.
type File struct {
	Path string
	Data []byte
}

// Plan renders the files a Result produces without touching the disk.
func Plan(res *Result, opts WriteOptions) []File {
	var files []File
	add := func(rel string, r vcard.Record) {
		data := []byte(opts.Encoder.Format(r))
		if opts.Transform != nil {
			data = opts.Transform(rel, data)
		}
		files = append(files, File{Path: rel, Data: data})
	}

	for _, out := range res.Outputs {
		if opts.Layout != LayoutGroup || len(out.Sources) < 2 {
			add(out.Name, out.Record)
			continue
		}
		dir := strings.TrimSuffix(out.Name, path.Ext(out.Name))
		names := filenames.NewDedupe()
		for _, src := range out.Sources {
			name := names.Claim(opts.Names.Sanitize(PrimaryName(src.Record)), opts.Names.Ext())
			add(path.Join(dir, name), src.Record)
		}
	}
	return files
}

// WriteDir writes res into dir, which must not exist. Files are staged in a
// sibling directory and promoted with a single rename, so either every file
// appears or none does. Returns the written paths relative to dir.
func WriteDir(dir string, res *Result, opts WriteOptions) ([]string, error) {
	files := Plan(res, opts)

	stage, err := atomicfile.NewStage(dir)
	if err != nil {
		return nil, &OutputWriteError{Path: dir, Err: err}
	}
	defer stage.Abort()

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := stage.WriteFile(f.Path, f.Data, 0o644); err != nil {
			return nil, &OutputWriteError{Path: f.Path, Err: err}
		}
		written = append(written, f.Path)
	}
	if err := stage.Promote(); err != nil {
		return nil, &OutputWriteError{Path: dir, Err: err}
	}
	return written, nil
}
