package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// cgroupFSRoot is where the host mounts the unified cgroup v2 hierarchy.
const cgroupFSRoot = "/sys/fs/cgroup"

// Config configures a Manager.
type Config struct {
	// StoragePath is where per-process sandbox directories
	// (upper/work/rootfs) are created. Must be an absolute path.
	StoragePath string
	// CgroupPath is the cgroup this Manager creates its per-process child
	// cgroups under, relative to cgroupFSRoot.
	CgroupPath string
}

// Manager creates isolated Process instances. Each Process gets its own
// numbered subdirectory under StoragePath and its own child cgroup under
// CgroupPath, and runs under the Manager's shared user-namespace mapping.
type Manager struct {
	storagePath string
	cgroupPath  string
	userMapper  *userMapper
	counter     atomic.Int64
}

// NewManager builds a Manager, creating StoragePath and the managing
// cgroup if they don't already exist, and reading the invoking user's
// delegated subuid/subgid range for the namespace mapper every Process
// shares.
func NewManager(config Config) (*Manager, error) {
	if !filepath.IsAbs(config.StoragePath) {
		return nil, fmt.Errorf("sandbox: storage path must be absolute: %q", config.StoragePath)
	}
	if err := os.MkdirAll(config.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create storage path: %w", err)
	}
	cgroupAbs := filepath.Join(cgroupFSRoot, config.CgroupPath)
	if err := setupCgroup(cgroupAbs); err != nil {
		return nil, fmt.Errorf("sandbox: setup cgroup: %w", err)
	}
	mapper, err := newUserMapper()
	if err != nil {
		return nil, fmt.Errorf("sandbox: build user mapper: %w", err)
	}
	return &Manager{
		storagePath: config.StoragePath,
		cgroupPath:  config.CgroupPath,
		userMapper:  mapper,
	}, nil
}

// CreateProcess allocates a fresh sandbox directory and cgroup, returning a
// Process ready to Start.
func (m *Manager) CreateProcess(config ProcessConfig) (*Process, error) {
	n := m.counter.Add(1)
	name := fmt.Sprintf("sandbox-%d", n)
	statePath := filepath.Join(m.storagePath, name)
	upperPath := filepath.Join(statePath, "upper")
	workPath := filepath.Join(statePath, "work")
	rootfsPath := filepath.Join(statePath, "rootfs")
	for _, dir := range []string{statePath, upperPath, workPath, rootfsPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sandbox: create %s: %w", dir, err)
		}
	}
	cgroupRelPath := filepath.Join(m.cgroupPath, name)
	cgroupAbs := filepath.Join(cgroupFSRoot, cgroupRelPath)
	if err := os.MkdirAll(cgroupAbs, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create cgroup %s: %w", cgroupAbs, err)
	}
	return &Process{
		config:     config,
		userMapper: m.userMapper,
		statePath:  statePath,
		upperPath:  upperPath,
		workPath:   workPath,
		rootfsPath: rootfsPath,
		cgroupPath: cgroupAbs,
	}, nil
}
