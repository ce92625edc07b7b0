package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrEmptyPassword is returned when the operator enters nothing.
var ErrEmptyPassword = errors.New("password is empty")

// PromptPassword reads a secret for label. On a terminal the input is not
// echoed; otherwise one line is read from in without prompting.
func PromptPassword(in io.Reader, out io.Writer, label string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "%s: ", label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", label, err)
		}
		if len(b) == 0 {
			return "", ErrEmptyPassword
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", ErrEmptyPassword
	}
	return line, nil
}
