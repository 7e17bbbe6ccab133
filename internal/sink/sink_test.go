package sink

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gitRun(t, dir, "init", "--quiet")
	gitRun(t, dir, "config", "user.email", "test@example.com")
	gitRun(t, dir, "config", "user.name", "Test")
	gitRun(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

func TestGitCommitOnlyTouchesBookDir(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	book := filepath.Join(repo, "perso")
	if err := os.MkdirAll(book, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(book, "Jane.vcf"), []byte("BEGIN:VCARD\nEND:VCARD\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := &Git{}
	if err := g.Commit(context.Background(), book, "Import contacts into perso"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	log := gitRun(t, repo, "log", "--format=%s")
	if strings.TrimSpace(log) != "Import contacts into perso" {
		t.Errorf("unexpected log %q", log)
	}
	files := gitRun(t, repo, "ls-files")
	if strings.TrimSpace(files) != "perso/Jane.vcf" {
		t.Errorf("expected only the book file committed, got %q", files)
	}
}

func TestGitCommitRecordsDeletions(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	path := filepath.Join(repo, "Old.vcf")
	if err := os.WriteFile(path, []byte("BEGIN:VCARD\nEND:VCARD\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g := &Git{}
	if err := g.Commit(context.Background(), repo, "first"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(context.Background(), repo, "second"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if files := gitRun(t, repo, "ls-files"); strings.TrimSpace(files) != "" {
		t.Errorf("expected deletion committed, still tracked: %q", files)
	}
}

func TestGitCommitNothingToCommit(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	g := &Git{}
	if err := g.Commit(context.Background(), repo, "empty"); !errors.Is(err, ErrNothingToCommit) {
		t.Errorf("expected ErrNothingToCommit, got %v", err)
	}
}

func TestGitCommitOutsideRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	err := (&Git{}).Commit(context.Background(), dir, "msg")
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected CommitError, got %v", err)
	}
	if !strings.HasPrefix(commitErr.Command, "git add") {
		t.Errorf("unexpected failing command %q", commitErr.Command)
	}
}

func TestNop(t *testing.T) {
	var s Sink = Nop{}
	if err := s.Commit(context.Background(), "/nowhere", "msg"); err != nil {
		t.Errorf("Nop.Commit() = %v", err)
	}
}
