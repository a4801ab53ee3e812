// Package session implements the interactive map-recording session: a small
// amount of cached state (the last downloaded graph and its lookup maps) and
// a dispatcher mapping single-character commands to remote operations.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gwillem/graphrec/pkg/api"
	"github.com/gwillem/graphrec/pkg/nav"
)

// GraphNav is the slice of the graph-nav service the session uses.
type GraphNav interface {
	DownloadGraph(ctx context.Context) (*nav.Graph, error)
	UploadGraph(ctx context.Context, graph *nav.Graph) error
	GetLocalizationState(ctx context.Context) (*api.LocalizationState, error)
	ClearGraph(ctx context.Context) error
	DownloadWaypointSnapshot(ctx context.Context, id string) ([]byte, error)
	DownloadEdgeSnapshot(ctx context.Context, id string) ([]byte, error)
}

// Recording is the slice of the recording service the session uses.
type Recording interface {
	StartRecording(ctx context.Context, meta api.SessionMetadata) error
	StopRecording(ctx context.Context) error
	GetRecordStatus(ctx context.Context) (*api.RecordStatus, error)
	CreateWaypoint(ctx context.Context, name string) (string, error)
	CreateEdge(ctx context.Context, edge nav.Edge) error
}

// MapProcessing is the slice of the map-processing service the session uses.
type MapProcessing interface {
	ProcessTopology(ctx context.Context, params api.TopologyParams) (*api.TopologyResult, error)
	ProcessAnchoring(ctx context.Context, params api.AnchoringParams) (*api.AnchoringResult, error)
}

// Image is the slice of the image service the session uses.
type Image interface {
	GetImageFromSources(ctx context.Context, sources []string) ([]api.ImageCapture, error)
}

// DefaultImageSource is the camera used for object capture when none is
// configured.
const DefaultImageSource = "frontleft_fisheye_image"

// Params configures a Session.
type Params struct {
	GraphNav      GraphNav
	Recording     Recording
	MapProcessing MapProcessing
	Image         Image

	// DownloadPath is the directory under which downloaded graphs and
	// snapshots are stored (a downloaded_graph subdirectory is created).
	DownloadPath string
	Meta         api.SessionMetadata
	ImageSource  string

	In  io.Reader // defaults to os.Stdin
	Out io.Writer // defaults to os.Stdout
	UI  UI        // defaults to a plain line-based UI on In/Out
}

// Session drives one interactive recording session. It is used from a single
// goroutine; every command blocks until its remote call returns.
type Session struct {
	graphNav GraphNav
	rec      Recording
	mapProc  MapProcessing
	image    Image

	downloadPath string
	meta         api.SessionMetadata
	imageSource  string
	stopInterval time.Duration

	in      *bufio.Scanner
	out     io.Writer
	ui      UI

	// Cached knowledge of the map, refreshed by re-downloading the graph.
	graph       *nav.Graph
	nameToID    map[string]string
	edgesByDest map[string][]string
}

// New creates a session. The graph cache starts empty; commands that need the
// map re-download it first.
func New(p Params) *Session {
	if p.In == nil {
		p.In = os.Stdin
	}
	if p.Out == nil {
		p.Out = os.Stdout
	}
	if p.ImageSource == "" {
		p.ImageSource = DefaultImageSource
	}
	s := &Session{
		graphNav:     p.GraphNav,
		rec:          p.Recording,
		mapProc:      p.MapProcessing,
		image:        p.Image,
		downloadPath: filepath.Join(p.DownloadPath, "downloaded_graph"),
		meta:         p.Meta,
		imageSource:  p.ImageSource,
		stopInterval: time.Second,
		in:           bufio.NewScanner(p.In),
		out:          p.Out,
	}
	if p.UI != nil {
		s.ui = p.UI
	} else {
		s.ui = &textUI{in: s.in, out: s.out}
	}
	return s
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// refreshGraph re-downloads the graph and rebuilds the lookup maps so that
// short names resolve against the latest snapshot. With doPrint it also lists
// the waypoints and edges.
func (s *Session) refreshGraph(ctx context.Context, doPrint bool) error {
	graph, err := s.graphNav.DownloadGraph(ctx)
	if err != nil {
		return fmt.Errorf("download graph: %w", err)
	}
	if graph.Empty() {
		s.printf("Empty graph.")
		s.graph = graph
		s.nameToID = nil
		s.edgesByDest = nil
		return nil
	}
	s.graph = graph
	s.nameToID = nav.NameToID(graph)
	s.edgesByDest = nav.EdgesByDestination(graph)

	if !doPrint {
		return nil
	}

	localizedID := ""
	if state, err := s.graphNav.GetLocalizationState(ctx); err == nil {
		localizedID = state.WaypointID
	} else {
		s.printf("Could not get localization state: %v", err)
	}

	s.printf("%d waypoints:", len(graph.Waypoints))
	for _, wp := range nav.SortChrono(graph) {
		s.printf("%s", nav.FormatWaypoint(wp, localizedID))
	}
	s.printf("%d edges:", len(graph.Edges))
	for _, e := range graph.Edges {
		s.printf("   %s -> %s", nav.ShortCode(e.FromID), nav.ShortCode(e.ToID))
	}
	return nil
}

// ClearMap removes all waypoints and edges from the robot and drops the local
// cache.
func (s *Session) ClearMap(ctx context.Context, args []string) error {
	if err := s.graphNav.ClearGraph(ctx); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	s.graph = nil
	s.nameToID = nil
	s.edgesByDest = nil
	s.printf("Cleared map on the robot.")
	return nil
}

// shouldStartRecording checks the graph-nav state before recording. With a
// non-empty map the robot must already be localized to it, otherwise new
// waypoints would not connect to the existing graph.
func (s *Session) shouldStartRecording(ctx context.Context) (bool, error) {
	graph, err := s.graphNav.DownloadGraph(ctx)
	if err != nil {
		return false, fmt.Errorf("download graph: %w", err)
	}
	if graph.Empty() {
		return true, nil
	}
	state, err := s.graphNav.GetLocalizationState(ctx)
	if err != nil {
		return false, fmt.Errorf("get localization state: %w", err)
	}
	return state.WaypointID != "", nil
}

// StartRecording begins recording a map, refusing when the graph-nav system
// is not in a recordable state.
func (s *Session) StartRecording(ctx context.Context, args []string) error {
	ok, err := s.shouldStartRecording(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.printf("The system is not in the proper state to start recording.")
		s.printf("Try clearing the map or localizing to it first.")
		return nil
	}
	if err := s.rec.StartRecording(ctx, s.meta); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	s.printf("Successfully started recording a map.")
	return nil
}

// StopRecording stops recording. The service keeps reporting not-ready while
// it finishes background processing; the stop request is resubmitted on a
// fixed interval until it succeeds or fails for a non-transient reason.
func (s *Session) StopRecording(ctx context.Context, args []string) error {
	first := true
	policy := backoff.WithContext(backoff.NewConstantBackOff(s.stopInterval), ctx)
	err := backoff.Retry(func() error {
		err := s.rec.StopRecording(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, api.ErrNotReady) {
			if first {
				s.printf("Cleaning up recording...")
				first = false
			}
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	s.printf("Successfully stopped recording a map.")
	return nil
}

// RecordStatus reports whether the recording service is on.
func (s *Session) RecordStatus(ctx context.Context, args []string) error {
	status, err := s.rec.GetRecordStatus(ctx)
	if err != nil {
		return fmt.Errorf("get record status: %w", err)
	}
	if status.IsRecording {
		s.printf("The recording service is on.")
	} else {
		s.printf("The recording service is off.")
	}
	return nil
}

// CreateWaypoint creates a waypoint at the robot's current location. An
// optional argument names it; otherwise it is called "default".
func (s *Session) CreateWaypoint(ctx context.Context, args []string) error {
	name := "default"
	if len(args) > 0 {
		name = args[0]
	}
	id, err := s.rec.CreateWaypoint(ctx, name)
	if err != nil {
		return fmt.Errorf("create waypoint %q: %w", name, err)
	}
	s.printf("Successfully created waypoint %s (%s).", name, id)
	return nil
}

// ListGraph lists the waypoint and edge ids of the map currently on the
// robot, refreshing the local cache.
func (s *Session) ListGraph(ctx context.Context, args []string) error {
	return s.refreshGraph(ctx, true)
}

// CreateEdge creates an edge between two existing waypoints, referenced by
// short code, annotation name or full id.
func (s *Session) CreateEdge(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return inputErrorf("specify the two waypoints to connect (short code or annotation)")
	}
	return s.createEdgeBetween(ctx, args[0], args[1])
}

// CreateLoop creates an edge from the most recent waypoint back to the first.
func (s *Session) CreateLoop(ctx context.Context, args []string) error {
	if err := s.refreshGraph(ctx, false); err != nil {
		return err
	}
	if s.graph.Empty() || len(s.graph.Waypoints) < 2 {
		n := 0
		if s.graph != nil {
			n = len(s.graph.Waypoints)
		}
		return inputErrorf("graph contains %d waypoint(s) -- at least two are needed to create a loop", n)
	}
	sorted := nav.SortChrono(s.graph)
	last := sorted[len(sorted)-1]
	first := sorted[0]
	return s.createEdgeBetween(ctx, last.ID, first.ID)
}

// createEdgeBetween resolves both references against the latest graph
// snapshot and submits the edge with a transform computed from the waypoint
// odometry poses.
func (s *Session) createEdgeBetween(ctx context.Context, fromRef, toRef string) error {
	if err := s.refreshGraph(ctx, false); err != nil {
		return err
	}
	fromID, err := nav.ResolveWaypoint(fromRef, s.graph, s.nameToID)
	if err != nil {
		return err
	}
	toID, err := nav.ResolveWaypoint(toRef, s.graph, s.nameToID)
	if err != nil {
		return err
	}

	fromWP, _ := s.graph.Waypoint(fromID)
	toWP, _ := s.graph.Waypoint(toID)

	s.printf("Creating edge from %s to %s.", fromID, toID)
	edge := nav.Edge{
		FromID:    fromID,
		ToID:      toID,
		Transform: nav.EdgeTransform(fromWP, toWP),
	}
	if err := s.rec.CreateEdge(ctx, edge); err != nil {
		return fmt.Errorf("create edge: %w", err)
	}
	s.printf("Created edge %s -> %s.", nav.ShortCode(fromID), nav.ShortCode(toID))
	return nil
}

// AutoCloseLoops asks which loop-closure strategies to run, then processes
// the topology on the robot.
func (s *Session) AutoCloseLoops(ctx context.Context, args []string) error {
	choice, err := s.ui.Select("Which loops should be closed?", []Choice{
		{Label: "Close all loops", Value: "all"},
		{Label: "Close only fiducial-based loops", Value: "fiducial"},
		{Label: "Close only odometry-based loops", Value: "odometry"},
		{Label: "Back", Value: "back"},
	})
	if err != nil {
		return err
	}
	params := api.TopologyParams{ModifyMapOnServer: true}
	switch choice {
	case "all":
		params.CloseFiducialLoops = true
		params.CloseOdometryLoops = true
	case "fiducial":
		params.CloseFiducialLoops = true
	case "odometry":
		params.CloseOdometryLoops = true
	default:
		return nil
	}
	result, err := s.mapProc.ProcessTopology(ctx, params)
	if err != nil {
		return fmt.Errorf("process topology: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("loop closure did not complete")
	}
	s.printf("Created %d new edge(s).", result.NewEdgeCount)
	return nil
}

// OptimizeAnchoring computes a globally optimal reference frame for the
// map's waypoints on the robot.
func (s *Session) OptimizeAnchoring(ctx context.Context, args []string) error {
	result, err := s.mapProc.ProcessAnchoring(ctx, api.AnchoringParams{ModifyAnchoringOnServer: true})
	if err != nil {
		return fmt.Errorf("process anchoring: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("anchoring optimization did not complete")
	}
	s.printf("Optimized anchoring after %d iteration(s).", result.Iterations)
	return nil
}
