package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get = %q, %v, %v; want v1", data, hit, err)
	}

	// Overwrite replaces the entry.
	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing entry should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should be a miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("bad"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty, has %d entries", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestDigest(t *testing.T) {
	d := Digest("repo", "main")
	if d != Digest("repo", "main") {
		t.Error("Digest should be deterministic")
	}
	if len(d) != 64 {
		t.Errorf("Digest length = %d, want 64", len(d))
	}
	if Digest("ab", "c") == Digest("a", "bc") {
		t.Error("part boundaries should change the digest")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	k1 := k.RecordsKey("repo@abc", 0, 100)
	k2 := k.RecordsKey("repo@abc", 100, 100)
	k3 := k.RecordsKey("repo@def", 0, 100)
	if k1 == k2 || k1 == k3 {
		t.Error("different windows or sources should produce different keys")
	}
	if k1 != k.RecordsKey("repo@abc", 0, 100) {
		t.Error("RecordsKey should be deterministic")
	}
	if !strings.HasPrefix(k1, "records:") {
		t.Errorf("RecordsKey should be prefixed with its kind: %s", k1)
	}
	if rk := k.RefsKey("repo@abc"); !strings.HasPrefix(rk, "refs:") {
		t.Errorf("RefsKey should be prefixed with its kind: %s", rk)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "root:/srv:")

	got := scoped.RecordsKey("repo", 0, 10)
	if got != "root:/srv:"+inner.RecordsKey("repo", 0, 10) {
		t.Errorf("ScopedKeyer RecordsKey unexpected: %s", got)
	}
	if got := scoped.RefsKey("repo"); got != "root:/srv:"+inner.RefsKey("repo") {
		t.Errorf("ScopedKeyer RefsKey unexpected: %s", got)
	}
	if other := NewScopedKeyer(inner, "root:/var:"); other.RecordsKey("repo", 0, 10) == got {
		t.Error("different scopes should not share keys")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if got, want := scoped.RefsKey("r"), "prefix:"+NewDefaultKeyer().RefsKey("r"); got != want {
		t.Errorf("RefsKey = %s, want %s", got, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open without dir should give NullCache, got %T", c)
	}

	c, err = Open(ctx, Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open with dir should give FileCache, got %T", c)
	}

	c, err = Open(ctx, Options{Backend: BackendSQLite, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := c.(*SQLiteCache); !ok {
		t.Errorf("sqlite backend should give SQLiteCache, got %T", c)
	}
	c.Close()

	if _, err := Open(ctx, Options{Backend: BackendFile}); err == nil {
		t.Error("file backend without dir should fail")
	}
	if _, err := Open(ctx, Options{Backend: BackendSQLite}); err == nil {
		t.Error("sqlite backend without dir should fail")
	}
	if _, err := Open(ctx, Options{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend error = %v, want ErrUnknownBackend", err)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	err := Transient(ErrUnavailable)
	if !IsTransient(err) {
		t.Error("marked error should be transient")
	}
	if !IsTransient(fmt.Errorf("ping: %w", err)) {
		t.Error("wrapping should keep the mark")
	}
	if err.Error() != ErrUnavailable.Error() || !errors.Is(err, ErrUnavailable) {
		t.Errorf("mark should be transparent: %v", err)
	}
	if IsTransient(ErrUnknownBackend) {
		t.Error("unmarked error should not be transient")
	}
}

func TestBackoffDo(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failFirst int
		transient bool
		wantCalls int
		wantErr   error
	}{
		{"success", 0, true, 1, nil},
		{"permanent", 5, false, 1, ErrUnknownBackend},
		{"recovers", 1, true, 2, nil},
		{"exhausted", 5, true, 3, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func(context.Context) error {
				calls++
				if calls > tt.failFirst {
					return nil
				}
				if tt.transient {
					return Transient(ErrUnavailable)
				}
				return ErrUnknownBackend
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffZeroValue(t *testing.T) {
	if got := (Backoff{}).orDefault(); got != DefaultBackoff {
		t.Errorf("zero Backoff = %+v, want %+v", got, DefaultBackoff)
	}
}

func TestBackoffDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Hour}.Do(ctx, func(context.Context) error {
		return Transient(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
