package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/docker/docker/pkg/reexec"
	"golang.org/x/sys/unix"
)

// ProcessConfig configures one sandboxed run.
type ProcessConfig struct {
	Command []string
	Environ []string
	// Layers are overlay lowerdirs applied in order, typically File
	// contents resolved through the cache manager.
	Layers        []string
	WorkDir       string
	TimeLimit     time.Duration
	RealTimeLimit time.Duration
	MemoryLimit   uint64
}

// Report is the outcome of a finished sandboxed process.
type Report struct {
	ExitCode int
	Memory   uint64
	Time     time.Duration
	RealTime time.Duration
}

// ErrAlreadyStarted is returned by Start on a Process already running.
var ErrAlreadyStarted = errors.New("sandbox: process already started")

// ErrNotStarted is returned by Wait on a Process that was never started.
var ErrNotStarted = errors.New("sandbox: process not started")

// Process is one isolated run, created by Manager.CreateProcess.
type Process struct {
	config     ProcessConfig
	userMapper *userMapper
	statePath  string
	upperPath  string
	workPath   string
	rootfsPath string
	cgroupPath string

	cmd       *exec.Cmd
	started   time.Time
	mountedOk bool
}

// Start mounts the process's overlay rootfs and launches its command
// inside fresh mount/PID/UTS/IPC/user/network namespaces, joining its
// dedicated cgroup before the target program runs.
func (p *Process) Start(ctx context.Context) error {
	if p.cmd != nil {
		return ErrAlreadyStarted
	}
	if err := mountOverlay(p.config.Layers, p.upperPath, p.workPath, p.rootfsPath); err != nil {
		return fmt.Errorf("sandbox: mount overlay: %w", err)
	}
	if err := mountBase(p.rootfsPath); err != nil {
		unmountAll(p.rootfsPath)
		return fmt.Errorf("sandbox: mount base: %w", err)
	}
	p.mountedOk = true
	if err := setMemoryLimit(p.cgroupPath, p.config.MemoryLimit); err != nil {
		return fmt.Errorf("sandbox: set memory limit: %w", err)
	}
	if len(p.config.Command) == 0 {
		return fmt.Errorf("sandbox: command is empty")
	}
	// Re-exec this binary as the sandbox's init (argv[0] = initArgvName):
	// it runs already inside the fresh UTS/user namespaces below, sets the
	// hostname, chroots into rootfsPath, and only then execs the real
	// command. exec.Cmd itself has no hook to run code between clone and
	// exec, which is why the hostname can't just be a SysProcAttr field.
	args := append([]string{initArgvName}, p.config.Command...)
	cmd := exec.Command(reexec.Self())
	cmd.Args = args
	cmd.Env = append(append([]string{}, p.config.Environ...),
		envRootfs+"="+p.rootfsPath,
		envHostname+"="+sandboxHost,
		envWorkDir+"="+p.config.WorkDir,
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWNS | unix.CLONE_NEWPID | unix.CLONE_NEWUTS |
			unix.CLONE_NEWIPC | unix.CLONE_NEWUSER | unix.CLONE_NEWNET,
		UidMappings:                p.userMapper.uidMappings(),
		GidMappings:                p.userMapper.gidMappings(),
		GidMappingsEnableSetgroups: false,
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("sandbox: start command: %w", err)
	}
	if err := addProcess(p.cgroupPath, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("sandbox: join cgroup: %w", err)
	}
	p.cmd = cmd
	p.started = time.Now()
	return nil
}

// Wait blocks until the process exits, is killed for exceeding
// RealTimeLimit, or ctx is cancelled, then returns its Report. Destroy
// should still be called afterwards to release mounts and the cgroup.
func (p *Process) Wait(ctx context.Context) (Report, error) {
	if p.cmd == nil {
		return Report{}, ErrNotStarted
	}
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()

	var timeout <-chan time.Time
	if p.config.RealTimeLimit > 0 {
		timer := time.NewTimer(p.config.RealTimeLimit)
		defer timer.Stop()
		timeout = timer.C
	}
	var waitErr error
	select {
	case waitErr = <-done:
	case <-timeout:
		_ = p.cmd.Process.Kill()
		waitErr = <-done
	case <-ctx.Done():
		_ = p.cmd.Process.Kill()
		waitErr = <-done
	}
	realTime := time.Since(p.started)
	if p.config.RealTimeLimit > 0 && realTime > p.config.RealTimeLimit {
		realTime = p.config.RealTimeLimit + time.Millisecond
	}
	exitCode := exitCodeOf(waitErr)
	cpuTime := time.Duration(readCPUTimeMicros(p.cgroupPath)) * time.Microsecond
	if p.config.TimeLimit > 0 && cpuTime > p.config.TimeLimit {
		cpuTime = p.config.TimeLimit + time.Millisecond
	}
	return Report{
		ExitCode: exitCode,
		Memory:   readMemoryPeak(p.cgroupPath),
		Time:     cpuTime,
		RealTime: realTime,
	}, nil
}

// exitCodeOf reports a finished command's exit status: its natural exit
// code, or the signal number (as a positive int) that killed it.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return int(status.Signal())
			}
			return status.ExitStatus()
		}
	}
	return -1
}

// Destroy releases the process's overlay mounts and cgroup and removes its
// state directory. Safe to call more than once.
func (p *Process) Destroy() error {
	if p.mountedOk {
		unmountAll(p.rootfsPath)
		p.mountedOk = false
	}
	if err := destroyCgroup(p.cgroupPath); err != nil {
		return err
	}
	return p.userMapper.removePath(p.statePath)
}
