//go:build !windows

package ui

import "io"

func enableVirtualTerminal(io.Writer) {}
