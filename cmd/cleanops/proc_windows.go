//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// CREATE_NEW_PROCESS_GROUP keeps Ctrl+C in the TUI console away from the daemon.
const createNewProcessGroup = 0x00000200

// configureDaemonProc detaches the daemon from the TUI console.
func configureDaemonProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
