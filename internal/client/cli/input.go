package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompts read answers from the App's reader, the same one the REPL reads
// commands from.

var errEmptyPassword = errors.New("password must not be empty")

// Terminal seams, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

// askLine prints "label: " and returns the trimmed answer. A last line
// without a newline still counts.
func askLine(r *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := readRawLine(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askPassword reads a password without echo when stdin is a terminal.
// Otherwise (piped into a script) it takes the next line of r as is.
func askPassword(r *bufio.Reader, w io.Writer, label string) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return nil, err
	}

	var pw []byte
	if fd := stdinFd(); isTerminal(fd) {
		b, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return nil, err
		}
		pw = b
	} else {
		line, err := readRawLine(r)
		if err != nil {
			return nil, err
		}
		pw = []byte(line)
	}

	if len(pw) == 0 {
		return nil, errEmptyPassword
	}
	return pw, nil
}

// askBio collects bio lines until an empty line or EOF. An immediate empty
// line yields "", which keeps the current bio.
func askBio(r *bufio.Reader, w io.Writer) (string, error) {
	if _, err := fmt.Fprintln(w, "Bio, several lines allowed (empty line to finish, or to keep the current one):"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) || (err == nil && line == "") {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// readRawLine returns the next line without its line ending.
func readRawLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
