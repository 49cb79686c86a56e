package adb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrTransportMissing means the adb binary could not be found.
	ErrTransportMissing = errors.New("adb is not installed")
	// ErrNoDevice means no authorized device is attached.
	ErrNoDevice = errors.New("no authorized device found")
	// ErrUserUnavailable means a user's packages cannot be listed (work
	// profile, secure folder).
	ErrUserUnavailable = errors.New("user packages unavailable")
)

// Runner executes one adb invocation and returns its combined output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the adb binary at Path.
type ExecRunner struct {
	Path string
}

func (r ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	name := r.Path
	if name == "" {
		name = "adb"
	}
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", name, ErrTransportMissing)
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
	}
	return string(out), nil
}
