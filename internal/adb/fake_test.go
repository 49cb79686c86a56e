package adb

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeRunner answers adb invocations from a table keyed by the joined
// argument list and records every call.
type fakeRunner struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{answers: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeRunner) on(cmd, out string) *fakeRunner {
	f.answers[cmd] = out
	return f
}

func (f *fakeRunner) fail(cmd string, err error) *fakeRunner {
	f.errs[cmd] = err
	return f
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return "", err
	}
	if out, ok := f.answers[key]; ok {
		return out, nil
	}
	return "", fmt.Errorf("unexpected adb call: %s", key)
}
