package engine

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileLockMutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tick.lock")
	ctx := context.Background()

	a := NewFileLock(path)
	ok, err := a.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	b := NewFileLock(path)
	ok, err = b.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("contended acquire errored: %v", err)
	}
	if ok {
		t.Fatalf("second holder acquired a held lock")
	}

	if err := a.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = b.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("reacquire after release: ok=%v err=%v", ok, err)
	}
	if err := b.Release(ctx); err != nil {
		t.Fatalf("release second holder: %v", err)
	}
}

func TestFileLockReleaseWithoutHoldIsNoop(t *testing.T) {
	l := NewFileLock(filepath.Join(t.TempDir(), "tick.lock"))
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("release without hold: %v", err)
	}
}
