package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if s.AuthToken() != "" || s.OfflineMode() {
		t.Fatal("expected empty session")
	}

	if err := s.SetAuthToken("abc"); err != nil {
		t.Fatalf("SetAuthToken: %v", err)
	}
	if err := s.SetOfflineMode(true); err != nil {
		t.Fatalf("SetOfflineMode: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if !strings.Contains(string(data), `"offlineMode": "true"`) {
		t.Fatalf("expected string flag in session file, got %s", data)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.AuthToken() != "abc" || !reopened.OfflineMode() {
		t.Fatalf("expected persisted values, got token=%q offline=%v", reopened.AuthToken(), reopened.OfflineMode())
	}

	if err := reopened.ClearAuthToken(); err != nil {
		t.Fatalf("ClearAuthToken: %v", err)
	}
	if reopened.AuthToken() != "" {
		t.Fatal("expected token cleared")
	}
}

func TestInMemory(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.SetOfflineMode(true); err != nil {
		t.Fatalf("SetOfflineMode: %v", err)
	}
	if !s.OfflineMode() {
		t.Fatal("expected offline mode on")
	}
}

func TestCorruptSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestWatchSeesOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	mine, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	other, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	seen := make(chan bool, 1)
	go mine.Watch(ctx, 10*time.Millisecond, func(offline bool) {
		select {
		case seen <- offline:
		default:
		}
	})

	if err := other.SetOfflineMode(true); err != nil {
		t.Fatal(err)
	}

	select {
	case offline := <-seen:
		if !offline {
			t.Fatal("expected offline=true from watch")
		}
	case <-ctx.Done():
		t.Fatal("watch did not observe the change")
	}
}

func TestSetKeepsOtherProcessWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open a: %v", err)
	}
	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open b: %v", err)
	}

	if err := a.SetOfflineMode(true); err != nil {
		t.Fatalf("SetOfflineMode: %v", err)
	}
	if err := b.SetAuthToken("tok"); err != nil {
		t.Fatalf("SetAuthToken: %v", err)
	}
	if !b.OfflineMode() {
		t.Fatal("expected b to pick up the offline flag written by a")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.OfflineMode() || reopened.AuthToken() != "tok" {
		t.Fatalf("expected both writes persisted, got offline=%v token=%q", reopened.OfflineMode(), reopened.AuthToken())
	}
}

func TestSetFailureLeavesMemoryUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.SetAuthToken("old"); err != nil {
		t.Fatalf("SetAuthToken: %v", err)
	}

	// A directory in place of the session file makes every save fail.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove session: %v", err)
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := s.SetAuthToken("new"); err == nil {
		t.Fatal("expected save error")
	}
	if got := s.AuthToken(); got != "old" {
		t.Fatalf("expected token to stay %q after failed save, got %q", "old", got)
	}
	if err := s.SetOfflineMode(true); err == nil {
		t.Fatal("expected save error")
	}
	if s.OfflineMode() {
		t.Fatal("expected offline flag unchanged after failed save")
	}
}
