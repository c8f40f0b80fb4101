// Package rewrite provides the middleware-based field rewrite engine that
// turns a plugin configuration into its nightly variant. The pipeline edits
// only the first name and version assignments and leaves every other byte
// of the file as it was.
package rewrite

import (
	"bytes"
	"io"
	"os"
	"regexp"

	"github.com/spf13/afero"

	"nightlyprep/internal/errors"
)

// Field names understood by the engine.
const (
	FieldName    = "name"
	FieldVersion = "version"
)

var (
	namePattern    = regexp.MustCompile(`name\s*=\s*"(.*)"`)
	versionPattern = regexp.MustCompile(`version\s*=\s*"(.*)"`)
)

// Rules describe the nightly rewrite.
type Rules struct {
	Name          string
	VersionSuffix string
}

// Edit represents a single field change. Start and End are byte offsets of
// the replaced value in the text the edit was applied to.
type Edit struct {
	Field  string `json:"field"`
	From   string `json:"from"`
	To     string `json:"to"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Result contains the outcome of rewriting one file.
type Result struct {
	Path         string `json:"path"`
	Edits        []Edit `json:"edits"`
	Modified     bool   `json:"modified"`
	OriginalSize int64  `json:"original_size"`
	NewSize      int64  `json:"new_size"`
	// AlreadySuffixed is set when the version already ended with the
	// suffix before this run; the suffix is appended again regardless.
	AlreadySuffixed bool `json:"already_suffixed,omitempty"`
}

// Middleware defines a processing step in the rewrite pipeline.
type Middleware func(ProcessContext) ProcessContext

// ProcessContext carries state through the rewrite pipeline.
type ProcessContext struct {
	Rules    Rules
	FilePath string
	Content  []byte
	Result   *Result
	Error    error
}

// Engine runs the rewrite pipeline.
type Engine struct {
	rules      Rules
	middleware []Middleware
}

// NewEngine creates an engine with the standard pipeline: input validation,
// name replacement, version suffixing and output validation.
func NewEngine(rules Rules) *Engine {
	engine := &Engine{
		rules:      rules,
		middleware: []Middleware{},
	}

	engine.Use(validateInputMiddleware)
	engine.Use(replaceNameMiddleware)
	engine.Use(suffixVersionMiddleware)
	engine.Use(validateOutputMiddleware)

	return engine
}

// Use appends a middleware to the pipeline.
func (e *Engine) Use(middleware Middleware) {
	e.middleware = append(e.middleware, middleware)
}

// Process rewrites content in memory. It stops at the first failing
// middleware and returns its error with no output.
func (e *Engine) Process(filePath string, content []byte) (*Result, []byte, error) {
	ctx := ProcessContext{
		Rules:    e.rules,
		FilePath: filePath,
		Content:  content,
		Result: &Result{
			Path:         filePath,
			OriginalSize: int64(len(content)),
		},
	}

	for _, mw := range e.middleware {
		ctx = mw(ctx)
		if ctx.Error != nil {
			ctx.Result.Modified = false
			return ctx.Result, nil, ctx.Error
		}
	}

	return ctx.Result, ctx.Content, nil
}

// Plan reads path from fsys and computes the rewrite without writing it.
func (e *Engine) Plan(fsys afero.Fs, path string) (*Result, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.WrapFileOpError(path, errors.OpRead, err)
	}
	result, _, err := e.Process(path, content)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RewriteFile rewrites path in place: the file is read, processed, then
// overwritten from offset zero and truncated to the new length. Nothing is
// written when processing fails.
func (e *Engine) RewriteFile(fsys afero.Fs, path string) (*Result, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.WrapFileOpError(path, errors.OpWrite, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.NewFileNotReadableError(path, err)
	}

	result, out, err := e.Process(path, content)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewRewriteError(path, "cannot rewind file", err)
	}
	if _, err := f.Write(out); err != nil {
		return nil, errors.NewRewriteError(path, "cannot write file", err)
	}
	if err := f.Truncate(int64(len(out))); err != nil {
		return nil, errors.NewRewriteError(path, "cannot truncate file", err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.NewRewriteError(path, "cannot close file", err)
	}

	return result, nil
}

func validateInputMiddleware(ctx ProcessContext) ProcessContext {
	if ctx.Rules.Name == "" || ctx.Rules.VersionSuffix == "" {
		ctx.Error = errors.NewConfigError("rewrite rules need a name and a version suffix", nil)
	}
	return ctx
}

// replaceNameMiddleware overwrites the first name value.
func replaceNameMiddleware(ctx ProcessContext) ProcessContext {
	loc := namePattern.FindSubmatchIndex(ctx.Content)
	if loc == nil {
		ctx.Error = errors.NewPatternError(ctx.FilePath, FieldName)
		return ctx
	}
	start, end := loc[2], loc[3]

	ctx.Result.Edits = append(ctx.Result.Edits, newEdit(ctx.Content, FieldName, start, end, ctx.Rules.Name))
	ctx.Content = splice(ctx.Content, start, end, ctx.Rules.Name)
	return ctx
}

// suffixVersionMiddleware appends the suffix after the first version value.
// It runs on the text produced by replaceNameMiddleware.
func suffixVersionMiddleware(ctx ProcessContext) ProcessContext {
	loc := versionPattern.FindSubmatchIndex(ctx.Content)
	if loc == nil {
		ctx.Error = errors.NewPatternError(ctx.FilePath, FieldVersion)
		return ctx
	}
	start, end := loc[2], loc[3]
	value := ctx.Content[start:end]

	ctx.Result.AlreadySuffixed = bytes.HasSuffix(value, []byte(ctx.Rules.VersionSuffix))
	ctx.Result.Edits = append(ctx.Result.Edits, newEdit(ctx.Content, FieldVersion, start, end, string(value)+ctx.Rules.VersionSuffix))
	ctx.Content = splice(ctx.Content, end, end, ctx.Rules.VersionSuffix)
	return ctx
}

func validateOutputMiddleware(ctx ProcessContext) ProcessContext {
	if len(ctx.Result.Edits) != 2 {
		ctx.Error = errors.NewRewriteError(ctx.FilePath, "unexpected number of field edits", nil)
		return ctx
	}
	ctx.Result.NewSize = int64(len(ctx.Content))
	for _, edit := range ctx.Result.Edits {
		if edit.From != edit.To {
			ctx.Result.Modified = true
		}
	}
	return ctx
}

func newEdit(content []byte, field string, start, end int, to string) Edit {
	line, column := position(content, start)
	return Edit{
		Field:  field,
		From:   string(content[start:end]),
		To:     to,
		Line:   line,
		Column: column,
		Start:  start,
		End:    end,
	}
}

// position converts a byte offset into a 1-based line and column.
func position(content []byte, offset int) (int, int) {
	before := content[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	column := offset - bytes.LastIndexByte(before, '\n')
	return line, column
}

func splice(content []byte, start, end int, insert string) []byte {
	out := make([]byte, 0, len(content)-(end-start)+len(insert))
	out = append(out, content[:start]...)
	out = append(out, insert...)
	out = append(out, content[end:]...)
	return out
}
