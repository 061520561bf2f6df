package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

const testForm = `שם התערוכה - עברית: ירח
שם התערוכה - אנגלית: Moon
תאריך פתיחה: 01/02/2024
שם בעברית: דנה
אמנ.ית 1
שם בעברית: יעל
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rulesDir = ""
	verbose = false

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeForm(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(testForm), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommandJSON(t *testing.T) {
	path := writeForm(t, t.TempDir(), "moon.txt")

	out, err := run(t, "parse", path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var rec extract.ExhibitionRecord
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not a record: %v\n%s", err, out)
	}
	if rec.Exhibition.TitleEng != "Moon" {
		t.Errorf("TitleEng = %q, want %q", rec.Exhibition.TitleEng, "Moon")
	}
}

func TestParseCommandMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeForm(t, dir, "a.txt")
	b := writeForm(t, dir, "b.txt")

	out, err := run(t, "parse", "--jobs", "2", a, b)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var results []parsedFile
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not a list: %v", err)
	}
	if len(results) != 2 || results[0].File != a || results[1].File != b {
		t.Fatalf("results out of order: %+v", results)
	}
	if results[0].Ruleset != ruleset.DefaultID {
		t.Errorf("Ruleset = %q, want %q", results[0].Ruleset, ruleset.DefaultID)
	}
}

func TestParseCommandText(t *testing.T) {
	path := writeForm(t, t.TempDir(), "moon.txt")

	out, err := run(t, "parse", "--format", "text", path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for _, want := range []string{"Title:    ירח / Moon", "Artists (1):", "1. יעל"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	path := writeForm(t, t.TempDir(), "moon.txt")

	if _, err := run(t, "parse", "--format", "xml", path); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, "parse", "--ruleset", "missing", path); err == nil {
		t.Error("expected error for unknown ruleset")
	}
	if _, err := run(t, "parse", filepath.Join(t.TempDir(), "form.pdf")); err == nil {
		t.Error("expected error for unsupported file")
	}
}

func TestCMSCommand(t *testing.T) {
	path := writeForm(t, t.TempDir(), "moon.txt")

	out, err := run(t, "cms", "--gender", "male", path)
	if err != nil {
		t.Fatalf("cms failed: %v", err)
	}
	if !strings.Contains(out, "אוצר: דנה") {
		t.Errorf("output missing curator line:\n%s", out)
	}
}

func TestRulesCommands(t *testing.T) {
	out, err := run(t, "rules", "list")
	if err != nil {
		t.Fatalf("rules list failed: %v", err)
	}
	if !strings.Contains(out, ruleset.DefaultID) {
		t.Errorf("list missing default ruleset:\n%s", out)
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, ruleset.DefaultYAML(), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("id: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "rules", "check", good); err != nil {
		t.Errorf("check of default ruleset failed: %v", err)
	}
	out, err = run(t, "rules", "check", good, bad)
	if err == nil {
		t.Error("expected check to fail for bad.yaml")
	}
	if !strings.Contains(out, "FAIL "+bad) {
		t.Errorf("output missing failure line:\n%s", out)
	}
}

func TestLibraryCommands(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "lib")
	form := writeForm(t, dir, "Moon Show.txt")

	if _, err := run(t, "library", "init", "--library", libPath); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := run(t, "library", "add", "--library", libPath, form); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	out, err := run(t, "library", "list", "--library", libPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "moon-show") {
		t.Errorf("list missing record:\n%s", out)
	}

	out, err = run(t, "library", "show", "--library", libPath, "--format", "source", "moon-show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if out != testForm {
		t.Errorf("source = %q, want original form", out)
	}

	if _, err := run(t, "library", "remove", "--library", libPath, "moon-show"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := run(t, "library", "show", "--library", libPath, "moon-show"); err == nil {
		t.Error("expected error showing removed record")
	}
}
