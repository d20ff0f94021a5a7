package deviceinfo

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestConfigWatcher_DetectsFileChange(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.lua")
	writeFile(t, configPath, "initial")

	var reloads atomic.Int32
	watcher, err := newConfigWatcher(configPath, 50*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("newConfigWatcher failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, configPath, "modified")

	if !eventually(t, 2*time.Second, func() bool { return reloads.Load() == 1 }) {
		t.Errorf("reloads = %d, want 1", reloads.Load())
	}
}

func TestConfigWatcher_DebounceMultipleWrites(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.lua")
	writeFile(t, configPath, "initial")

	var reloads atomic.Int32
	watcher, err := newConfigWatcher(configPath, 150*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("newConfigWatcher failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		writeFile(t, configPath, "content "+string(rune('0'+i)))
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(400 * time.Millisecond)

	if got := reloads.Load(); got != 1 {
		t.Errorf("reloads = %d, want 1 (debounced)", got)
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "device.lua")
	writeFile(t, configPath, "initial")

	var reloads atomic.Int32
	watcher, err := newConfigWatcher(configPath, 30*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("newConfigWatcher failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.lua"), "noise")
	time.Sleep(200 * time.Millisecond)

	if got := reloads.Load(); got != 0 {
		t.Errorf("reloads = %d, want 0", got)
	}
}

func TestConfigWatcher_ReloadErrorReported(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.lua")
	writeFile(t, configPath, "initial")

	errCh := make(chan error, 1)
	watcher, err := newConfigWatcher(configPath, 30*time.Millisecond, func() error {
		return errors.New("parse failed")
	}, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})
	if err != nil {
		t.Fatalf("newConfigWatcher failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, configPath, "broken")

	select {
	case err := <-errCh:
		if err.Error() != "parse failed" {
			t.Errorf("error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("reload error not reported")
	}
}

func TestConfigWatcher_StopPreventsReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.lua")
	writeFile(t, configPath, "initial")

	var reloads atomic.Int32
	watcher, err := newConfigWatcher(configPath, 30*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("newConfigWatcher failed: %v", err)
	}
	watcher.Start()
	time.Sleep(50 * time.Millisecond)
	watcher.Stop()
	watcher.Stop()

	writeFile(t, configPath, "modified")
	time.Sleep(150 * time.Millisecond)

	if got := reloads.Load(); got != 0 {
		t.Errorf("reloads = %d after Stop, want 0", got)
	}
}

func TestConfigWatcher_StopWithoutStart(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.lua")
	writeFile(t, configPath, "initial")

	watcher, err := newConfigWatcher(configPath, 0, nil, nil)
	if err != nil {
		t.Fatalf("newConfigWatcher failed: %v", err)
	}
	if watcher.debounce != DefaultWatchDebounce {
		t.Errorf("debounce = %v, want default", watcher.debounce)
	}
	watcher.Stop()
	watcher.Start()
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	_, err := newConfigWatcher("/nonexistent/dir/device.lua", 0, nil, nil)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
