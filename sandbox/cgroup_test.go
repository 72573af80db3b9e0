package sandbox

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMemoryPeakMissingReturnsZero(t *testing.T) {
	dir := t.TempDir()
	if got := readMemoryPeak(dir); got != 0 {
		t.Fatalf("expected 0 for missing memory.peak, got %d", got)
	}
}

func TestReadMemoryPeakParsesValue(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "memory.peak"), []byte("1048576\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readMemoryPeak(dir); got != 1048576 {
		t.Fatalf("expected 1048576, got %d", got)
	}
}

func TestReadCPUTimeMicrosMissingReturnsZero(t *testing.T) {
	dir := t.TempDir()
	if got := readCPUTimeMicros(dir); got != 0 {
		t.Fatalf("expected 0 for missing cpu.stat, got %d", got)
	}
}

func TestReadCPUTimeMicrosParsesUsageUsec(t *testing.T) {
	dir := t.TempDir()
	content := "usage_usec 250000\nuser_usec 200000\nsystem_usec 50000\n"
	if err := os.WriteFile(filepath.Join(dir, "cpu.stat"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readCPUTimeMicros(dir); got != 250000 {
		t.Fatalf("expected 250000, got %d", got)
	}
}

func TestSetMemoryLimitWritesMax(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "memory.max"), []byte("0"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := setMemoryLimit(dir, 0); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "memory.max"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "max" {
		t.Fatalf("expected \"max\", got %q", data)
	}
}

func TestSetMemoryLimitWritesBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "memory.max"), []byte("0"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := setMemoryLimit(dir, 268435456); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "memory.max"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "268435456" {
		t.Fatalf("expected \"268435456\", got %q", data)
	}
}

func TestDestroyCgroupToleratesMissing(t *testing.T) {
	if err := destroyCgroup(filepath.Join(t.TempDir(), "gone")); err != nil {
		t.Fatalf("expected no error for an already-absent cgroup dir, got %v", err)
	}
}

func TestDestroyCgroupRemovesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := destroyCgroup(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected dir to be removed, stat err = %v", err)
	}
}
