package sandbox

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// mountOverlay layers lowerdirs (read-only, applied in order) under
// upperdir/workdir, mounting the union at target.
func mountOverlay(lowerdirs []string, upperdir, workdir, target string) error {
	if len(lowerdirs) == 0 {
		return fmt.Errorf("sandbox: overlay requires at least one lower layer")
	}
	options := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", strings.Join(lowerdirs, ":"), upperdir, workdir)
	return unix.Mount("overlay", target, "overlay", 0, options)
}

// mountBase bind-mounts the host's /proc and /dev into target and mounts
// fresh sys, tmp and devpts filesystems, the standard set a sandboxed
// program expects to find, grounded on the original's BaseMounts.
func mountBase(target string) error {
	for _, rel := range []string{"proc", "dev"} {
		src := "/" + rel
		dst := target + "/" + rel
		if err := unix.Mount(src, dst, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
			return fmt.Errorf("sandbox: bind mount %s: %w", src, err)
		}
	}
	if err := unix.Mount("sysfs", target+"/sys", "sysfs", 0, ""); err != nil {
		return fmt.Errorf("sandbox: mount sys: %w", err)
	}
	if err := unix.Mount("tmpfs", target+"/tmp", "tmpfs", 0, ""); err != nil {
		return fmt.Errorf("sandbox: mount tmp: %w", err)
	}
	if err := unix.Mount("devpts", target+"/dev/pts", "devpts", 0, ""); err != nil {
		return fmt.Errorf("sandbox: mount devpts: %w", err)
	}
	return nil
}

func unmountAll(target string) {
	_ = unix.Unmount(target+"/dev/pts", unix.MNT_DETACH)
	_ = unix.Unmount(target+"/tmp", unix.MNT_DETACH)
	_ = unix.Unmount(target+"/sys", unix.MNT_DETACH)
	_ = unix.Unmount(target+"/dev", unix.MNT_DETACH)
	_ = unix.Unmount(target+"/proc", unix.MNT_DETACH)
	_ = unix.Unmount(target, unix.MNT_DETACH)
}
