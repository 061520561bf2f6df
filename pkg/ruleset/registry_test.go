package ruleset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

const customYAML = `
id: studio-form
name: Studio open call form
version: "1.0.0"
detection:
  indicators:
    - pattern: 'Open Call'
      weight: 5
exhibition_fields:
  - name: title_eng
    label: "Project title"
artist_marker: 'Participant\s*(\d+)'
image_marker: 'Work\s*(\d+)'
`

func writeRuleset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestNewRegistryHoldsDefault(t *testing.T) {
	registry := NewRegistry(nil)
	if registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", registry.Count())
	}
	rs, ok := registry.Get(DefaultID)
	if !ok || rs != Default() {
		t.Error("registry should hold the embedded default")
	}
}

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry(nil)

	rs := minimalRuleset()
	if err := registry.Register(&rs); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}
	if !rs.IsCompiled() {
		t.Error("Register() should compile the ruleset")
	}

	if err := registry.Register(nil); err == nil {
		t.Error("Register(nil) should return error")
	}

	dup := minimalRuleset()
	if err := registry.Register(&dup); err == nil {
		t.Error("Register() duplicate version should return error")
	}

	next := minimalRuleset()
	next.Version = "2.0.0"
	if err := registry.Register(&next); err != nil {
		t.Errorf("Register() new version error = %v", err)
	}
	got, _ := registry.Get("test-form")
	if got.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", got.Version)
	}

	invalid := minimalRuleset()
	invalid.ID = ""
	if err := registry.Register(&invalid); err == nil {
		t.Error("Register() invalid ruleset should return error")
	}
}

func TestRegistryUnregisterAndList(t *testing.T) {
	registry := NewRegistry(nil)
	rs := minimalRuleset()
	if err := registry.Register(&rs); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	list := registry.List()
	if len(list) != 2 || list[0].ID != DefaultID || list[1].ID != "test-form" {
		t.Errorf("List() not sorted by id: %v", ids(list))
	}

	if err := registry.Unregister("test-form"); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
	if err := registry.Unregister("test-form"); err == nil {
		t.Error("Unregister() of missing ruleset should return error")
	}

	registry.Clear()
	if registry.Count() != 1 {
		t.Errorf("Clear() should keep only the default, got %d", registry.Count())
	}
}

func TestRegistryLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRuleset(t, dir, "studio.yaml", customYAML)
	writeRuleset(t, dir, "notes.txt", "not a ruleset")

	registry, err := NewRegistryWithDirectory(dir, nil)
	if err != nil {
		t.Fatalf("NewRegistryWithDirectory() error = %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}
	rs, ok := registry.Get("studio-form")
	if !ok {
		t.Fatal("studio-form not loaded")
	}
	if rs.InstagramScope != ScopeBlock {
		t.Errorf("defaults not applied: scope %q", rs.InstagramScope)
	}
}

func TestRegistryLoadDirectoryErrors(t *testing.T) {
	registry := NewRegistry(nil)
	if err := registry.LoadDirectory(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("missing directory should not be an error, got %v", err)
	}

	dir := t.TempDir()
	writeRuleset(t, dir, "broken.yaml", "id: [")
	err := registry.LoadDirectory(dir)
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Errorf("LoadDirectory() error = %v, want mention of broken.yaml", err)
	}

	file := writeRuleset(t, t.TempDir(), "plain.yaml", customYAML)
	if err := registry.LoadDirectory(file); err == nil {
		t.Error("LoadDirectory() on a file should return error")
	}
}

func TestRegistryLoadFileReplacesOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleset(t, dir, "studio.yaml", customYAML)
	registry := NewRegistry(nil)

	if err := registry.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	writeRuleset(t, dir, "studio.yaml", strings.Replace(customYAML, "Studio open call form", "Renamed form", 1))
	if err := registry.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() rewrite error = %v", err)
	}
	rs, _ := registry.Get("studio-form")
	if rs.Name != "Renamed form" {
		t.Errorf("Name = %q, want Renamed form", rs.Name)
	}
}

func TestRegistryReload(t *testing.T) {
	registry := NewRegistry(nil)
	if err := registry.Reload(); err == nil {
		t.Error("Reload() without directory should return error")
	}

	dir := t.TempDir()
	path := writeRuleset(t, dir, "studio.yaml", customYAML)
	if err := registry.LoadDirectory(dir); err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := registry.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, ok := registry.Get("studio-form"); ok {
		t.Error("Reload() should drop rulesets whose file is gone")
	}
}

func TestRegistryWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	registry, err := NewRegistryWithDirectory(dir, nil)
	if err != nil {
		t.Fatalf("NewRegistryWithDirectory() error = %v", err)
	}

	events := make(chan string, 8)
	removed := make(chan string, 1)
	registry.SetOnChange(func(event string, rs *Ruleset) {
		if event == "remove" {
			select {
			case removed <- rs.ID:
			default:
			}
			return
		}
		select {
		case events <- event:
		default:
		}
	})

	if err := registry.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer registry.StopWatch()

	writeRuleset(t, dir, "studio.yaml", customYAML)
	waitFor(t, func() bool {
		_, ok := registry.Get("studio-form")
		return ok
	})

	select {
	case ev := <-events:
		if ev != "create" && ev != "modify" {
			t.Errorf("event = %q, want create or modify", ev)
		}
	case <-time.After(2 * time.Second):
		t.Error("no change notification received")
	}

	if err := os.Remove(filepath.Join(dir, "studio.yaml")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, ok := registry.Get("studio-form")
		return !ok
	})

	select {
	case id := <-removed:
		if id != "studio-form" {
			t.Errorf("removed id = %q, want %q", id, "studio-form")
		}
	case <-time.After(2 * time.Second):
		t.Error("no remove notification received")
	}
}

func TestHandleFileRemove(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleset(t, dir, "studio.yaml", customYAML)
	registry, err := NewRegistryWithDirectory(dir, nil)
	if err != nil {
		t.Fatalf("NewRegistryWithDirectory() error = %v", err)
	}

	var got []string
	registry.SetOnChange(func(event string, rs *Ruleset) {
		got = append(got, event+":"+rs.ID)
	})

	registry.handleFileRemove(filepath.Join(dir, "unknown.yaml"))
	registry.handleFileRemove(path)
	registry.handleFileRemove(path)

	if len(got) != 1 || got[0] != "remove:studio-form" {
		t.Errorf("callbacks = %v, want [remove:studio-form]", got)
	}
	if _, ok := registry.Get("studio-form"); ok {
		t.Error("studio-form still registered after removal")
	}
}

func TestWatchWithoutDirectory(t *testing.T) {
	registry := NewRegistry(nil)
	if err := registry.Watch(); err == nil {
		t.Error("Watch() without directory should return error")
	}
	registry.StopWatch()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func ids(list []*Ruleset) []string {
	out := make([]string, len(list))
	for i, rs := range list {
		out[i] = rs.ID
	}
	return out
}
