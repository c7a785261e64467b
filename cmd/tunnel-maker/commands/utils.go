package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// readPasswordSecurely reads a password from the terminal without echoing
func readPasswordSecurely(prompt string, errOut io.Writer) (string, error) {
	fmt.Fprintf(errOut, "%s", prompt)

	bytePassword, err := term.ReadPassword(int(syscall.Stdin))

	fmt.Fprintf(errOut, "\n")

	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
