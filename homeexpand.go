package streamio

import (
	"os"
	"strings"
)

// expandHome expands a leading "~" or "~/..." to the current user's home
// directory. No ecosystem library covers this one-liner, so it is
// implemented directly against os.UserHomeDir.
func expandHome(s string) (string, error) {
	if s == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", NewTransportError("local", err)
		}
		return home, nil
	}

	if strings.HasPrefix(s, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", NewTransportError("local", err)
		}
		return home + s[1:], nil
	}

	return s, nil
}
