package adb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// Client talks to devices through a Runner. Bind selects the device every
// later shell command targets.
type Client struct {
	runner Runner
	logger *zap.Logger

	mu     sync.RWMutex
	serial string
}

func NewClient(r Runner, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{runner: r, logger: logger}
}

// Bind makes serial the active device. It must be called again whenever the
// active device changes.
func (c *Client) Bind(serial string) {
	c.mu.Lock()
	c.serial = serial
	c.mu.Unlock()
	c.logger.Info("device bound", zap.String("serial", serial))
}

// Serial returns the bound device serial.
func (c *Client) Serial() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serial
}

// Available checks that the adb transport can be executed at all.
func (c *Client) Available(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "version"); err != nil {
		if errors.Is(err, ErrTransportMissing) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransportMissing, err)
	}
	return nil
}

// Devices lists attached devices. Authorized devices are probed for model,
// SDK level and user profiles.
func (c *Client) Devices(ctx context.Context) ([]device.Device, error) {
	raw, err := c.runner.Run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	var out []device.Device
	for _, d := range parseADBDevices(raw) {
		dev := device.Device{Serial: d.Serial, Authorized: d.State == "device"}
		if dev.Authorized {
			c.describe(ctx, &dev)
		}
		out = append(out, dev)
	}
	return out, nil
}

// Discover returns the device to work on: the one with serial prefer when
// given, otherwise the first authorized device.
func (c *Client) Discover(ctx context.Context, prefer string) (device.Device, error) {
	devs, err := c.Devices(ctx)
	if err != nil {
		return device.Device{}, err
	}
	for _, d := range devs {
		if !d.Authorized {
			continue
		}
		if prefer == "" || d.Serial == prefer {
			return d, nil
		}
	}
	return device.Device{}, ErrNoDevice
}

func (c *Client) describe(ctx context.Context, dev *device.Device) {
	if out, err := c.shellOn(ctx, dev.Serial, "getprop", "ro.product.model"); err == nil {
		dev.Model = strings.TrimSpace(out)
	}
	if out, err := c.shellOn(ctx, dev.Serial, "getprop", "ro.build.version.sdk"); err == nil {
		dev.AndroidSDK, _ = strconv.Atoi(strings.TrimSpace(out))
	}
	if !dev.SupportsUsers() {
		return
	}
	out, err := c.shellOn(ctx, dev.Serial, "pm", "list", "users")
	if err != nil {
		c.logger.Warn("list users failed", zap.String("serial", dev.Serial), zap.Error(err))
		return
	}
	ids := parseUsers(out)
	for i, id := range ids {
		u := device.User{Index: i, ID: id}
		if len(ids) > 1 {
			u.Protected = c.probeProtected(ctx, dev.Serial, id)
		}
		dev.Users = append(dev.Users, u)
	}
	c.logger.Info("device found",
		zap.String("serial", dev.Serial),
		zap.String("model", dev.Model),
		zap.Int("sdk", dev.AndroidSDK),
		zap.Int("users", len(dev.Users)))
}

// probeProtected reports whether the device refuses to list a user's packages.
func (c *Client) probeProtected(ctx context.Context, serial string, id int) bool {
	out, err := c.shellOn(ctx, serial, "pm", "list", "packages", "-s", "--user", strconv.Itoa(id))
	return err != nil || strings.TrimSpace(out) == "" || strings.Contains(out, "Exception")
}

// ListPackages returns the state of every system package for user on the
// bound device. Packages reported by -u but neither enabled nor disabled are
// uninstalled for that user.
func (c *Client) ListPackages(ctx context.Context, dev device.Device, user device.User) (map[string]packages.State, error) {
	list := func(flag string) (map[string]struct{}, error) {
		args := append([]string{"pm", "list", "packages", "-s", flag}, userArgs(user, dev)...)
		out, err := c.shell(ctx, args...)
		if err != nil {
			return nil, err
		}
		if strings.Contains(out, "Exception") {
			return nil, fmt.Errorf("%s: %s", strings.Join(args, " "), firstLine(out))
		}
		return parsePackageList(out), nil
	}

	all, err := list("-u")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", user, ErrUserUnavailable, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w: empty package list", user, ErrUserUnavailable)
	}
	enabled, err := list("-e")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", user, ErrUserUnavailable, err)
	}
	disabled, err := list("-d")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", user, ErrUserUnavailable, err)
	}

	states := make(map[string]packages.State, len(all))
	for id := range all {
		switch {
		case has(enabled, id):
			states[id] = packages.Enabled
		case has(disabled, id):
			states[id] = packages.Disabled
		default:
			states[id] = packages.Uninstalled
		}
	}
	return states, nil
}

// Outcome is the result of one executed command.
type Outcome struct {
	Command  Command
	Output   string
	Duration time.Duration
}

// Exec runs cmd on the bound device. Output that reports a pm/am failure is
// an error even when adb exits zero.
func (c *Client) Exec(ctx context.Context, cmd Command) (Outcome, error) {
	start := time.Now()
	out, err := c.shell(ctx, cmd.Args...)
	res := Outcome{Command: cmd, Output: strings.TrimSpace(out), Duration: time.Since(start)}
	if err != nil {
		return res, err
	}
	if failed(out) {
		return res, fmt.Errorf("%s: %s", cmd.Shell(), firstLine(out))
	}
	return res, nil
}

func (c *Client) shell(ctx context.Context, args ...string) (string, error) {
	return c.shellOn(ctx, c.Serial(), args...)
}

func (c *Client) shellOn(ctx context.Context, serial string, args ...string) (string, error) {
	full := make([]string, 0, len(args)+3)
	if serial != "" {
		full = append(full, "-s", serial)
	}
	full = append(full, "shell")
	full = append(full, args...)
	return c.runner.Run(ctx, full...)
}

func has(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
