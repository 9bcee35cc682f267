package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"strata/internal/diagfmt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off", "--quiet"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestIndexCommandJSON(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"lib/cart.rb": "class Cart\n  def add(item, qty = 1)\n  end\nend\n",
		"lib/util.rb": "module Util\n  VERSION = \"1\"\nend\n",
	})
	out, err := execute(t, "index", "--format", "json", "--ui", "off", root)
	if err != nil {
		t.Fatalf("index: %v\n%s", err, out)
	}
	var trees []diagfmt.TreeOutput
	if err := json.Unmarshal([]byte(out), &trees); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(trees) != 2 {
		t.Fatalf("trees = %d, want 2", len(trees))
	}
	if got := trees[0].Root.Children[0].Functions[0].Signature; got != "add(item, qty = Integer)" {
		t.Errorf("signature = %q", got)
	}
}

func TestDiagCommandExitCode(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"ok.rb":  "class Ok\nend\n",
		"bad.rb": "class Bad\nend\nend\n",
	})
	out, err := execute(t, "diag", "--no-cache", root)
	var code exitCode
	if !errors.As(err, &code) || code != 1 {
		t.Fatalf("err = %v, want exit status 1\n%s", err, out)
	}
	if !strings.Contains(out, "bad.rb:3:1") || !strings.Contains(out, "IDX2003") {
		t.Errorf("output:\n%s", out)
	}

	clean := writeFiles(t, map[string]string{"ok.rb": "class Ok\nend\n"})
	if out, err := execute(t, "diag", clean); err != nil {
		t.Fatalf("clean tree: %v\n%s", err, out)
	}
}

func TestDiagCommandSarif(t *testing.T) {
	t.Cleanup(func() { _ = diagCmd.Flags().Set("format", "pretty") })
	root := writeFiles(t, map[string]string{"bad.rb": "class Bad\nend\nend\n"})
	out, err := execute(t, "diag", "--format", "sarif", root)
	var code exitCode
	if !errors.As(err, &code) || code != 1 {
		t.Fatalf("err = %v, want exit status 1\n%s", err, out)
	}
	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &log); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 || len(log.Runs[0].Results) != 1 {
		t.Fatalf("log = %+v", log)
	}
	if r := log.Runs[0].Results[0]; r.RuleID != "IDX2003" || r.Level != "error" {
		t.Errorf("result = %+v", r)
	}
}

func TestDiagCommandShort(t *testing.T) {
	t.Cleanup(func() { _ = diagCmd.Flags().Set("format", "pretty") })
	root := writeFiles(t, map[string]string{"bad.rb": "class Bad\nend\nend\n"})
	out, _ := execute(t, "diag", "--format", "short", root)
	if !strings.HasPrefix(out, "error IDX2003 bad.rb:3:1 ") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestExportCommand(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.rb": "class A\n  X = 1\nend\n"})
	db := filepath.Join(t.TempDir(), "out.db")
	if out, err := execute(t, "export", "--db", db, root); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	if _, err := os.Stat(db); err != nil {
		t.Fatalf("database not written: %v", err)
	}
	out, err := execute(t, "export", "--db", db, "--list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "1 files (0 failed)") {
		t.Errorf("list output:\n%s", out)
	}
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "strata.toml")); err != nil {
		t.Fatalf("strata.toml missing: %v", err)
	}
	if _, err := execute(t, "init", dir); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Tool != "strata" || payload.Version == "" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestWriteDiffPlain(t *testing.T) {
	diff := "--- a/x.rb\n+++ b/x.rb\n@@ -1,2 +1,2 @@\n x.rb\n-  class A\n+  class B\n"
	var buf bytes.Buffer
	writeDiff(&buf, diff, false)
	if buf.String() != diff {
		t.Errorf("got:\n%s", buf.String())
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Error("expected error for invalid mode")
	}
}
