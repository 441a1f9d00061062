package probe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
)

const msvcBanner = "Microsoft (R) C/C++ Optimizing Compiler"

var msvcVersionRE = regexp.MustCompile(`Version ([\d.]+)`)

// MSVC probes the Visual C++ compiler driver. cl prints its banner to
// stderr when run without arguments.
type MSVC struct {
	Bin string // defaults to "cl"
}

func (m MSVC) Probe(ctx context.Context) (version, path string, err error) {
	bin := m.Bin
	if bin == "" {
		bin = "cl"
	}
	path, err = exec.LookPath(bin)
	if err != nil {
		return "", "", err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path)
	cmd.Stderr = &stderr
	// cl exits non-zero without input files; only the banner matters.
	_ = cmd.Run()

	banner := stderr.String()
	if !strings.Contains(banner, msvcBanner) {
		return "", "", errors.New("cl did not print the MSVC banner")
	}
	if m := msvcVersionRE.FindStringSubmatch(banner); m != nil {
		version = m[1]
	}
	return version, path, nil
}
