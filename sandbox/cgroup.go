package sandbox

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// setupCgroup creates path if missing and enables every controller listed
// in cgroup.controllers for its children, via cgroup.subtree_control.
func setupCgroup(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	controllers, err := os.ReadFile(filepath.Join(path, "cgroup.controllers"))
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(path, "cgroup.subtree_control"), os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, name := range strings.Fields(string(controllers)) {
		if _, err := f.WriteString("+" + name); err != nil {
			return fmt.Errorf("enable controller %q: %w", name, err)
		}
	}
	return nil
}

// setMemoryLimit writes limit (bytes) to memory.max. limit == 0 leaves the
// cgroup unbounded ("max").
func setMemoryLimit(cgroupPath string, limit uint64) error {
	value := "max"
	if limit > 0 {
		value = strconv.FormatUint(limit, 10)
	}
	return os.WriteFile(filepath.Join(cgroupPath, "memory.max"), []byte(value), 0o644)
}

// addProcess adds pid to the cgroup's process list.
func addProcess(cgroupPath string, pid int) error {
	return os.WriteFile(filepath.Join(cgroupPath, "cgroup.procs"), []byte(strconv.Itoa(pid)), 0o644)
}

// readMemoryPeak returns memory.peak (bytes), or 0 if the controller isn't
// present.
func readMemoryPeak(cgroupPath string) uint64 {
	data, err := os.ReadFile(filepath.Join(cgroupPath, "memory.peak"))
	if err != nil {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// readCPUTimeMicros returns the usage_usec field of cpu.stat, or 0 if the
// controller isn't present.
func readCPUTimeMicros(cgroupPath string) uint64 {
	f, err := os.Open(filepath.Join(cgroupPath, "cpu.stat"))
	if err != nil {
		return 0
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == "usage_usec" {
			v, err := strconv.ParseUint(fields[1], 10, 64)
			if err == nil {
				return v
			}
		}
	}
	return 0
}

// destroyCgroup removes an empty cgroup directory, ignoring a not-exist
// error.
func destroyCgroup(cgroupPath string) error {
	err := os.Remove(cgroupPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
