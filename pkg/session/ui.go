package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Choice is one selectable option.
type Choice struct {
	Label string
	Value string
}

// UI collects interactive input for commands that need more than their
// argument list. The CLI provides a form-based implementation; tests script
// it. The zero configuration falls back to plain line input.
type UI interface {
	Select(title string, choices []Choice) (string, error)
	Input(prompt string) (string, error)
}

// textUI is the line-based fallback UI sharing the session's input scanner.
type textUI struct {
	in  *bufio.Scanner
	out io.Writer
}

func (u *textUI) Select(title string, choices []Choice) (string, error) {
	fmt.Fprintln(u.out, title)
	for i, c := range choices {
		fmt.Fprintf(u.out, "  (%d) %s\n", i, c.Label)
	}
	fmt.Fprint(u.out, "> ")
	if !u.in.Scan() {
		return "", io.EOF
	}
	answer := strings.TrimSpace(u.in.Text())
	for i, c := range choices {
		if answer == fmt.Sprintf("%d", i) || answer == c.Value {
			return c.Value, nil
		}
	}
	// The last choice is the back/cancel option.
	fmt.Fprintln(u.out, "Unrecognized command. Going back.")
	return choices[len(choices)-1].Value, nil
}

func (u *textUI) Input(prompt string) (string, error) {
	fmt.Fprintf(u.out, "%s: ", prompt)
	if !u.in.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(u.in.Text()), nil
}
