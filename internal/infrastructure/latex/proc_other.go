//go:build !unix && !windows

package latex

import "os/exec"

func configureProcessGroup(*exec.Cmd) {}

func terminateProcessGroup(*exec.Cmd) {}
