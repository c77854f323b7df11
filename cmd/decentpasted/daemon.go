package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// daemonize re-execs the current binary with DECENTPASTE_FOREGROUND=1 set
// and releases the child, so the original invocation can return
// immediately. Kept as its own function (rather than inline in run) so a
// future platform-specific override can replace just this piece, the way
// the fork it's patterned on splits daemonization per-OS.
func daemonize() error {
	path, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	logPath := filepath.Join(dataDir, "decentpasted.log")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	env := append(os.Environ(), "DECENTPASTE_FOREGROUND=1")
	process, err := os.StartProcess(path, os.Args, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, logFile, logFile},
	})
	if err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	return process.Release()
}
