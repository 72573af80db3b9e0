package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/docker/docker/pkg/reexec"
	"golang.org/x/sys/unix"
)

// Environment variables runSandboxInit reads to bootstrap a sandboxed
// process: sethostname, chroot into rootfs, chdir into workDir, then exec
// the target command. These only ever cross a process's own env, set by
// Process.Start just before launching the re-exec'd child.
const (
	envRootfs    = "SOLVE_SANDBOX_ROOTFS"
	envHostname  = "SOLVE_SANDBOX_HOSTNAME"
	envWorkDir   = "SOLVE_SANDBOX_WORKDIR"
	sandboxHost  = "sandbox"
	initArgvName = "solve-sandbox-init"
	rmArgvName   = "solve-sandbox-rm"
)

func init() {
	reexec.Register(initArgvName, runSandboxInit)
	reexec.Register(rmArgvName, runSandboxRemove)
	if reexec.Init() {
		os.Exit(0)
	}
}

// runSandboxInit is the re-exec'd bootstrap entrypoint for a sandboxed
// process. It runs already inside the child's fresh UTS/mount/user
// namespaces (set up by Process.Start's SysProcAttr), so it can do what
// exec.Cmd cannot: set the namespace's hostname before the target program
// ever runs, then chroot into the prepared rootfs and exec the real
// command.
func runSandboxInit() {
	rootfs := os.Getenv(envRootfs)
	if rootfs == "" {
		fmt.Fprintln(os.Stderr, "sandbox: init: missing rootfs")
		os.Exit(127)
	}
	if err := unix.Sethostname([]byte(os.Getenv(envHostname))); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox: init: sethostname:", err)
		os.Exit(127)
	}
	if err := unix.Chroot(rootfs); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox: init: chroot:", err)
		os.Exit(127)
	}
	if err := os.Chdir("/"); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox: init: chdir root:", err)
		os.Exit(127)
	}
	if workDir := os.Getenv(envWorkDir); workDir != "" {
		if err := os.Chdir(workDir); err != nil {
			fmt.Fprintln(os.Stderr, "sandbox: init: chdir workdir:", err)
			os.Exit(127)
		}
	}
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "sandbox: init: empty command")
		os.Exit(127)
	}
	path := args[0]
	if resolved, err := exec.LookPath(args[0]); err == nil {
		path = resolved
	}
	if err := syscall.Exec(path, args, os.Environ()); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox: init: exec:", err)
		os.Exit(127)
	}
}

// runSandboxRemove deletes a directory tree on behalf of removePath,
// running as mapped root so it can remove files owned by ids in the
// mapper's delegated subuid/subgid range that the invoking host user
// cannot unlink directly.
func runSandboxRemove() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "sandbox: rm: missing path")
		os.Exit(127)
	}
	if err := os.RemoveAll(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox: rm:", err)
		os.Exit(1)
	}
}

// removePath deletes path as mapped root, via the same uid/gid mapping a
// sandboxed process ran under, so it can reach files owned by the
// delegated subuid/subgid range rather than just the invoking host user.
func (m *userMapper) removePath(path string) error {
	cmd := exec.Command(reexec.Self())
	cmd.Args = []string{rmArgvName, path}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags:                 unix.CLONE_NEWUSER,
		UidMappings:                m.uidMappings(),
		GidMappings:                m.gidMappings(),
		GidMappingsEnableSetgroups: false,
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("sandbox: remove %s: %w: %s", path, err, out)
	}
	return nil
}
