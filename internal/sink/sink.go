// Package sink persists a book directory after an import. The git sink
// commits it; the no-op sink is used when committing is disabled.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/uncaged-coder/vcardtools/internal/shellquote"
)

// ErrNothingToCommit is returned when dir has no changes to persist.
var ErrNothingToCommit = errors.New("nothing to commit")

// Sink records a new state of a directory.
type Sink interface {
	Commit(ctx context.Context, dir, message string) error
}

// Nop accepts every commit and does nothing.
type Nop struct{}

func (Nop) Commit(context.Context, string, string) error {
	return nil
}

// CommitError reports a failed git invocation.
type CommitError struct {
	Dir     string
	Command string
	Stderr  string
	Err     error
}

func (e *CommitError) Error() string {
	msg := fmt.Sprintf("%s (in %s): %v", e.Command, e.Dir, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Git commits every change below dir with the git executable.
type Git struct {
	// Binary defaults to "git".
	Binary string
	Logger *zap.Logger
}

// Commit stages all changes under dir, including deletions, and commits
// them. Changes outside dir in the same repository are left alone.
func (g *Git) Commit(ctx context.Context, dir, message string) error {
	if _, err := g.run(ctx, dir, "add", "-A", "--", "."); err != nil {
		return err
	}

	// diff --quiet exits 1 when there are staged changes.
	_, err := g.run(ctx, dir, "diff", "--cached", "--quiet", "--", ".")
	if err == nil {
		g.logger().Debug("no changes to commit", zap.String("dir", dir))
		return ErrNothingToCommit
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		return err
	}

	if _, err := g.run(ctx, dir, "commit", "--quiet", "-m", message, "--", "."); err != nil {
		return err
	}
	g.logger().Info("committed book", zap.String("dir", dir), zap.String("message", message))
	return nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := strings.TrimSpace(g.Binary)
	if binary == "" {
		binary = "git"
	}

	command := shellquote.Join(append([]string{binary}, args...)...)
	g.logger().Debug("running git", zap.String("dir", dir), zap.String("command", command))

	execCmd := exec.CommandContext(ctx, binary, args...)
	execCmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	if err := execCmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && len(args) > 0 && args[0] == "diff" {
			return stdout.String(), err
		}
		return stdout.String(), &CommitError{
			Dir:     dir,
			Command: command,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.String(), nil
}

func (g *Git) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
