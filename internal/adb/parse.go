package adb

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type adbDevice struct {
	Serial string
	State  string
}

func parseADBDevices(raw string) []adbDevice {
	s := bufio.NewScanner(strings.NewReader(raw))
	out := []adbDevice{}
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "List of devices attached") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		out = append(out, adbDevice{Serial: parts[0], State: strings.ToLower(parts[1])})
	}
	return out
}

// parsePackageList reads `pm list packages` output into a set.
func parsePackageList(raw string) map[string]struct{} {
	s := bufio.NewScanner(strings.NewReader(raw))
	set := map[string]struct{}{}
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(line, "package:") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "package:"))
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}

var userInfoRE = regexp.MustCompile(`UserInfo\{(\d+):`)

// parseUsers extracts Android user ids from `pm list users`, sorted.
func parseUsers(raw string) []int {
	var ids []int
	seen := map[int]bool{}
	for _, m := range userInfoRE.FindAllStringSubmatch(raw, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// failed reports whether pm/am output signals a failure even though adb
// exited zero (older adb versions do not forward shell exit codes).
func failed(out string) bool {
	return strings.Contains(out, "Failure") ||
		strings.Contains(out, "Exception") ||
		strings.HasPrefix(strings.TrimSpace(out), "Error")
}
