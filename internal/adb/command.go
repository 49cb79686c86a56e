package adb

import (
	"strconv"
	"strings"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// Command is one primitive shell invocation against one package and user.
type Command struct {
	Package string
	User    device.User
	Args    []string
}

// Shell renders the command as typed after `adb shell`.
func (c Command) Shell() string {
	return strings.Join(c.Args, " ")
}

// ApplyState returns the shell commands that move pkg from current to target
// for user on dev, in the order they must run. The first command is the one
// that realizes the state change; the rest clean up after it. An unsupported
// combination yields nil.
func ApplyState(pkg string, current, target packages.State, user device.User, dev device.Device) []Command {
	sdk := dev.AndroidSDK
	var verbs [][]string
	switch target {
	case packages.Enabled:
		switch {
		case current == packages.Disabled:
			verbs = [][]string{{"pm", "enable"}}
		case sdk >= 23:
			verbs = [][]string{{"cmd", "package", "install-existing"}}
		case sdk >= 21:
			verbs = [][]string{{"pm", "unhide"}}
		case sdk >= 19:
			verbs = [][]string{{"pm", "unblock"}, {"pm", "clear"}}
		}
	case packages.Disabled:
		switch {
		case sdk >= 23 && current == packages.Uninstalled:
			verbs = [][]string{{"cmd", "package", "install-existing"}, {"pm", "disable-user"}, {"am", "force-stop"}, {"pm", "clear"}}
		case sdk >= 23:
			verbs = [][]string{{"pm", "disable-user"}, {"am", "force-stop"}, {"pm", "clear"}}
		case sdk >= 21:
			verbs = [][]string{{"pm", "hide"}, {"pm", "clear"}}
		case sdk >= 19:
			verbs = [][]string{{"pm", "block"}, {"pm", "clear"}}
		}
	case packages.Uninstalled:
		switch {
		case sdk >= 23:
			verbs = [][]string{{"pm", "uninstall"}}
		case sdk >= 21:
			verbs = [][]string{{"pm", "hide"}, {"pm", "clear"}}
		case sdk >= 19:
			verbs = [][]string{{"pm", "block"}, {"pm", "clear"}}
		}
	}

	cmds := make([]Command, 0, len(verbs))
	for _, v := range verbs {
		args := append([]string(nil), v...)
		args = append(args, userArgs(user, dev)...)
		args = append(args, pkg)
		cmds = append(cmds, Command{Package: pkg, User: user, Args: args})
	}
	return cmds
}

func userArgs(user device.User, dev device.Device) []string {
	if user.Implicit || !dev.SupportsUsers() {
		return nil
	}
	return []string{"--user", strconv.Itoa(user.ID)}
}
