package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gwillem/graphrec/pkg/api"
	"github.com/gwillem/graphrec/pkg/nav"
)

// Kind classifies a command error so the dispatcher can decide between
// retry, report-and-continue, and abort without catch-all handling.
type Kind int

const (
	// KindRemote is a remote call failure: reported, loop continues.
	KindRemote Kind = iota
	// KindTransient is a not-ready condition, retried where a policy says so.
	KindTransient
	// KindInput is malformed user input: reported, no retry.
	KindInput
	// KindFatal aborts the session with a non-zero exit.
	KindFatal
)

// InputError marks malformed user input (wrong argument count, unresolvable
// waypoint reference).
type InputError struct {
	msg string
}

func (e *InputError) Error() string { return e.msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{msg: fmt.Sprintf(format, args...)}
}

// Classify maps an error to its Kind.
func Classify(err error) Kind {
	var input *InputError
	var notFound nav.ErrWaypointNotFound
	var ambiguous nav.ErrAmbiguousName
	switch {
	case errors.Is(err, api.ErrNotReady):
		return KindTransient
	case errors.As(err, &input), errors.As(err, &notFound), errors.As(err, &ambiguous):
		return KindInput
	case errors.Is(err, context.Canceled):
		return KindFatal
	default:
		return KindRemote
	}
}

type command struct {
	key  string
	help string
	run  func(ctx context.Context, args []string) error
}

// commands returns the dispatch table in menu order. A method rather than a
// field so the closures can capture s without an initialization cycle.
func (s *Session) commands() []command {
	return []command{
		{"0", "Clear map.", s.ClearMap},
		{"1", "Start recording a map.", s.StartRecording},
		{"2", "Stop recording a map.", s.StopRecording},
		{"3", "Get the recording service's status.", s.RecordStatus},
		{"4", "Create a waypoint at the current robot location (optional name).", s.CreateWaypoint},
		{"5", "Download the map after recording.", s.DownloadFullGraph},
		{"6", "List the waypoint ids and edge ids of the map on the robot.", s.ListGraph},
		{"7", "Create an edge between two existing waypoints using odometry.", s.CreateEdge},
		{"8", "Create an edge from the last waypoint to the first using odometry.", s.CreateLoop},
		{"9", "Automatically find and close loops.", s.AutoCloseLoops},
		{"a", "Optimize the map's anchoring.", s.OptimizeAnchoring},
		{"o", "Add an object node to a waypoint.", s.AddObject},
	}
}

// Menu renders the command overview shown before each prompt.
func (s *Session) Menu() string {
	var sb strings.Builder
	sb.WriteString("Options:\n")
	for _, cmd := range s.commands() {
		fmt.Fprintf(&sb, "  (%s) %s\n", cmd.key, cmd.help)
	}
	sb.WriteString("  (q) Exit.\n")
	return sb.String()
}

// Dispatch handles one input line: the first token selects the command, the
// rest are its arguments. It reports whether the session should quit. Errors
// from handlers are returned for the caller to classify; unknown tokens and
// blank lines are handled here and never touch session state.
func (s *Session) Dispatch(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	token := fields[0]
	if token == "q" {
		return true, nil
	}
	for _, cmd := range s.commands() {
		if cmd.key == token {
			return false, cmd.run(ctx, fields[1:])
		}
	}
	s.printf("Request not in the known command dictionary.")
	return false, nil
}

// Run is the session loop: print the menu, read a line, dispatch it. The
// loop survives per-command failures and ends on "q", end of input, or a
// fatal error.
func (s *Session) Run(ctx context.Context) error {
	for {
		fmt.Fprint(s.out, s.Menu())
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		quit, err := s.Dispatch(ctx, s.in.Text())
		if quit {
			return nil
		}
		if err == nil {
			continue
		}
		if Classify(err) == KindFatal {
			return err
		}
		s.printf("Error: %v", err)
	}
}
