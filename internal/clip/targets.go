package clip

import "strings"

// parseTargetList turns the newline-separated output of `wl-paste --list-types`
// or `xclip -t TARGETS -o` into MIME format names, preserving order. X11 meta
// atoms (TARGETS, TIMESTAMP, UTF8_STRING, ...) carry no '/' and are dropped,
// as are duplicates.
func parseTargetList(out []byte) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if !strings.Contains(name, "/") {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
