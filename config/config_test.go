package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Disassemble != nil || p.DumpBytecode != nil || p.MaxConstants != nil {
		t.Fatalf("expected all-nil Project, got %+v", p)
	}
}

func TestLoadParsesFields(t *testing.T) {
	path := writeTemp(t, "disassemble: true\ndumpBytecode: false\nmaxConstants: 128\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.BoolDefault(p.Disassemble, false) != true {
		t.Fatalf("expected disassemble=true")
	}
	if p.BoolDefault(p.DumpBytecode, true) != false {
		t.Fatalf("expected dumpBytecode=false")
	}
	if p.IntDefault(p.MaxConstants, 256) != 128 {
		t.Fatalf("expected maxConstants=128")
	}
}

func TestDefaultsFallBackWhenFieldAbsent(t *testing.T) {
	path := writeTemp(t, "disassemble: true\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IntDefault(p.MaxConstants, 256) != 256 {
		t.Fatalf("expected fallback 256 when maxConstants absent")
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := writeTemp(t, "disassemble: [this is not a bool\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}
