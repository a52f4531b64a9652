// Package conversion compiles generated Typst documents into PDF.
package conversion

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ErrCompilerMissing means the typst binary could not be found.
var ErrCompilerMissing = errors.New("typst compiler not available")

// DefaultTimeout bounds one compilation.
const DefaultTimeout = 30 * time.Second

// TypstCompiler runs the typst CLI in a scratch directory.
type TypstCompiler struct {
	Binary  string
	Timeout time.Duration
}

func NewTypstCompiler(binary string) *TypstCompiler {
	if binary == "" {
		binary = "typst"
	}
	return &TypstCompiler{Binary: binary, Timeout: DefaultTimeout}
}

// Available reports whether the binary resolves on PATH.
func (c *TypstCompiler) Available() bool {
	_, err := exec.LookPath(c.Binary)
	return err == nil
}

// Compile writes source as main.typ next to the given assets and returns the
// compiled PDF. Asset names are relative paths inside the scratch directory.
func (c *TypstCompiler) Compile(ctx context.Context, source []byte, assets map[string][]byte) ([]byte, error) {
	bin, err := exec.LookPath(c.Binary)
	if err != nil {
		return nil, ErrCompilerMissing
	}

	workDir, err := os.MkdirTemp("", "typst-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	for name, data := range assets {
		dest := filepath.Join(workDir, filepath.FromSlash(name))
		if !isWithin(workDir, dest) {
			return nil, errors.Errorf("asset %q escapes the work directory", name)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(filepath.Join(workDir, "main.typ"), source, 0o644); err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "compile", "main.typ", "output.pdf")
	cmd.Dir = workDir
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(ctx.Err(), "typst compile timed out")
		}
		return nil, errors.Wrapf(err, "typst compile failed: %s", stderr.String())
	}

	pdf, err := os.ReadFile(filepath.Join(workDir, "output.pdf"))
	if err != nil {
		return nil, errors.Wrap(err, "read compiled pdf")
	}
	return pdf, nil
}

func isWithin(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
