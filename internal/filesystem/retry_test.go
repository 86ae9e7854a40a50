package filesystem

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu         sync.Mutex
	operations []string
	attempts   int
	successes  int
	failures   int
}

func (r *recordingObserver) ObserveOperation(operation string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, operation)
}

func (r *recordingObserver) ObserveRetryAttempt(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
}

func (r *recordingObserver) ObserveRetrySuccess(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes++
}

func (r *recordingObserver) ObserveRetryFailure(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func withObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_RecoversFromStaleHandle(t *testing.T) {
	obs := withObserver(t)

	calls := 0
	err := withRetry("read", "/cache/key", fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return syscall.ESTALE
		}
		return nil
	})

	if err != nil {
		t.Fatalf("withRetry() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	if obs.attempts != 2 || obs.successes != 1 || obs.failures != 0 {
		t.Errorf("observer = attempts %d successes %d failures %d, want 2/1/0", obs.attempts, obs.successes, obs.failures)
	}
	if len(obs.operations) != 1 || obs.operations[0] != "read" {
		t.Errorf("operations = %v, want [read]", obs.operations)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	obs := withObserver(t)

	calls := 0
	err := withRetry("write", "/cache/key", fastRetryConfig(), func() error {
		calls++
		return syscall.ESTALE
	})

	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 4 {
		t.Errorf("fn called %d times, want 4 (1 + 3 retries)", calls)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
}

func TestWithRetry_NonStaleErrorFailsFast(t *testing.T) {
	calls := 0
	err := withRetry("stat", "/cache/key", fastRetryConfig(), func() error {
		calls++
		return os.ErrPermission
	})

	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("withRetry() error = %v, want ErrPermission", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestWriteFileAtomicAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry")
	content := []byte("encoded image bytes")

	if err := WriteFileAtomic(path, content, fastRetryConfig()); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	got, err := ReadFileWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("ReadFileWithRetry() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("read %q, want %q", got, content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the final file in %s, found %d entries", dir, len(entries))
	}

	info, err := StatWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("size = %d, want %d", info.Size(), len(content))
	}
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "entry")
	if err := WriteFileAtomic(path, []byte("x"), fastRetryConfig()); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestRemoveWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveWithRetry(path, fastRetryConfig()); err != nil {
		t.Fatalf("RemoveWithRetry() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should be gone, stat err = %v", err)
	}
	if err := RemoveWithRetry(path, fastRetryConfig()); err != nil {
		t.Errorf("removing a missing file should not fail, got %v", err)
	}
}

func TestReadFileWithRetry_NotExist(t *testing.T) {
	_, err := ReadFileWithRetry(filepath.Join(t.TempDir(), "nope"), fastRetryConfig())
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func BenchmarkStatWithRetry_Success(b *testing.B) {
	path := filepath.Join(b.TempDir(), "entry")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		b.Fatal(err)
	}
	config := DefaultRetryConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = StatWithRetry(path, config)
	}
}
