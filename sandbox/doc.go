// Package sandbox runs a command fully isolated: its own mount, PID, UTS,
// IPC, network and user namespace, rooted at a disposable overlay
// filesystem, under a dedicated cgroup used for both resource limiting and
// accounting. The calling user is mapped to root inside the namespace via a
// subuid/subgid mapper, and a small re-exec bootstrap sets the sandbox's
// hostname before the target program runs.
package sandbox
