package sandbox

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"
)

// idRange is one delegated block of ids, as recorded in /etc/subuid or
// /etc/subgid: count ids starting at start.
type idRange struct {
	start uint32
	count uint32
}

// userMapper builds the UID/GID namespace mappings that give the invoking
// user uid/gid 0 inside a sandboxed process's user namespace, with the
// user's delegated subuid/subgid range mapped in above it for any
// additional ids the sandboxed program creates. Grounded on the original's
// subuid/subgid-based BinNewIdMapper; Go's exec.Cmd writes the mapping
// directly to /proc/<pid>/{u,g}id_map via SysProcAttr, so no newuidmap/
// newgidmap helper binary is needed here.
type userMapper struct {
	uid    int
	gid    int
	subUID idRange
	subGID idRange
}

func newUserMapper() (*userMapper, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("sandbox: lookup current user: %w", err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("sandbox: parse uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("sandbox: parse gid %q: %w", u.Gid, err)
	}
	subUID, err := readSubIDRange("/etc/subuid", u.Username, uid)
	if err != nil {
		return nil, err
	}
	subGID, err := readSubIDRange("/etc/subgid", u.Username, uid)
	if err != nil {
		return nil, err
	}
	return &userMapper{uid: uid, gid: gid, subUID: subUID, subGID: subGID}, nil
}

// readSubIDRange parses a /etc/subuid or /etc/subgid line of the form
// "name:start:count", matched by username or by uid.
func readSubIDRange(path, username string, uid int) (idRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return idRange{}, fmt.Errorf("sandbox: open %s: %w", path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), ":")
		if len(fields) != 3 {
			continue
		}
		if fields[0] != username && fields[0] != strconv.Itoa(uid) {
			continue
		}
		start, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			continue
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			continue
		}
		return idRange{start: uint32(start), count: uint32(count)}, nil
	}
	if err := scanner.Err(); err != nil {
		return idRange{}, fmt.Errorf("sandbox: read %s: %w", path, err)
	}
	return idRange{}, fmt.Errorf("sandbox: no %s entry for %q", path, username)
}

// uidMappings maps container uid 0 to the invoking host user, and the
// delegated subuid range to container uids starting at 1.
func (m *userMapper) uidMappings() []syscall.SysProcIDMap {
	return []syscall.SysProcIDMap{
		{ContainerID: 0, HostID: m.uid, Size: 1},
		{ContainerID: 1, HostID: int(m.subUID.start), Size: int(m.subUID.count)},
	}
}

func (m *userMapper) gidMappings() []syscall.SysProcIDMap {
	return []syscall.SysProcIDMap{
		{ContainerID: 0, HostID: m.gid, Size: 1},
		{ContainerID: 1, HostID: int(m.subGID.start), Size: int(m.subGID.count)},
	}
}
