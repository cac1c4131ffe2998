package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport_FinalizeArchive(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "report.zip")

	conf := ReporterConfig{Destination: dest}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(tmpDir, "changes.json")
	if err := os.WriteFile(stored, []byte(`[{"kind":"token-substitution"}]`), 0644); err != nil {
		t.Fatalf("failed to write stored file: %v", err)
	}

	r.Store("changes.json", stored)
	r.StoreData("run.txt", []byte("run 1"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("report archive does not open: %v", err)
	}
	defer zr.Close()

	names := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		names[f.Name] = string(data)
	}

	if _, ok := names["MANIFEST"]; !ok {
		t.Error("archive is missing MANIFEST")
	}
	if got := names["changes.json"]; !strings.Contains(got, "token-substitution") {
		t.Errorf("changes.json content = %q, want stored file content", got)
	}
	if got := names["run.txt"]; got != "run 1" {
		t.Errorf("run.txt content = %q, want %q", got, "run 1")
	}
	// manifest lists every entry
	manifest := names["MANIFEST"]
	for _, want := range []string{"changes.json", "run.txt"} {
		if !strings.Contains(manifest, want) {
			t.Errorf("MANIFEST does not mention %s:\n%s", want, manifest)
		}
	}
}

func TestReport_PrepareFallsBackToTemp(t *testing.T) {
	conf := ReporterConfig{}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() with empty destination error = %v", err)
	}
	name := r.Name()
	if name == "" {
		t.Fatal("expected a temporary report file name")
	}
	defer os.Remove(name)

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestReport_StoreIgnoresAbsentFiles(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "report.zip")

	conf := ReporterConfig{Destination: dest}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	r.Store("missing.log", filepath.Join(tmpDir, "never-created.log"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("report archive does not open: %v", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == "missing.log" {
			t.Error("absent source file should not appear in the archive")
		}
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestReport_NilSafeStores(t *testing.T) {
	var r *Report
	// must all be no-ops
	r.Store("a", "b")
	r.StoreData("c", []byte("d"))
	if err := r.StoreCopy("e", "f"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Error("Name on nil report should be empty")
	}
}
