package session

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/graphrec/pkg/api"
	"github.com/gwillem/graphrec/pkg/nav"
)

// --- fakes -----------------------------------------------------------------

type fakeGraphNav struct {
	graph       *nav.Graph
	localized   string
	locErr      error
	wpSnaps     map[string][]byte
	edgeSnaps   map[string][]byte
	uploaded    *nav.Graph
	failWPSnaps map[string]bool

	downloadCalls int
	clearCalls    int
	uploadCalls   int
}

func (f *fakeGraphNav) DownloadGraph(ctx context.Context) (*nav.Graph, error) {
	f.downloadCalls++
	if f.graph == nil {
		return &nav.Graph{}, nil
	}
	return f.graph, nil
}

func (f *fakeGraphNav) UploadGraph(ctx context.Context, g *nav.Graph) error {
	f.uploadCalls++
	f.uploaded = g
	return nil
}

func (f *fakeGraphNav) GetLocalizationState(ctx context.Context) (*api.LocalizationState, error) {
	if f.locErr != nil {
		return nil, f.locErr
	}
	return &api.LocalizationState{WaypointID: f.localized}, nil
}

func (f *fakeGraphNav) ClearGraph(ctx context.Context) error {
	f.clearCalls++
	return nil
}

func (f *fakeGraphNav) DownloadWaypointSnapshot(ctx context.Context, id string) ([]byte, error) {
	if f.failWPSnaps[id] {
		return nil, fmt.Errorf("snapshot %s unavailable", id)
	}
	data, ok := f.wpSnaps[id]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot %s", id)
	}
	return data, nil
}

func (f *fakeGraphNav) DownloadEdgeSnapshot(ctx context.Context, id string) ([]byte, error) {
	data, ok := f.edgeSnaps[id]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot %s", id)
	}
	return data, nil
}

type fakeRecording struct {
	recording     bool
	stopNotReady  int // remaining StopRecording calls that fail not-ready
	stopErr       error

	startCalls    int
	stopCalls     int
	statusCalls   int
	waypointCalls int
	edgeCalls     int
	edges         []nav.Edge
}

func (f *fakeRecording) StartRecording(ctx context.Context, meta api.SessionMetadata) error {
	f.startCalls++
	f.recording = true
	return nil
}

func (f *fakeRecording) StopRecording(ctx context.Context) error {
	f.stopCalls++
	if f.stopErr != nil {
		return f.stopErr
	}
	if f.stopNotReady > 0 {
		f.stopNotReady--
		return fmt.Errorf("recording/stop: %w", api.ErrNotReady)
	}
	f.recording = false
	return nil
}

func (f *fakeRecording) GetRecordStatus(ctx context.Context) (*api.RecordStatus, error) {
	f.statusCalls++
	return &api.RecordStatus{IsRecording: f.recording}, nil
}

func (f *fakeRecording) CreateWaypoint(ctx context.Context, name string) (string, error) {
	f.waypointCalls++
	return "created-" + name, nil
}

func (f *fakeRecording) CreateEdge(ctx context.Context, edge nav.Edge) error {
	f.edgeCalls++
	f.edges = append(f.edges, edge)
	return nil
}

type fakeMapProc struct {
	topoCalls   int
	topoParams  api.TopologyParams
	anchorCalls int
}

func (f *fakeMapProc) ProcessTopology(ctx context.Context, params api.TopologyParams) (*api.TopologyResult, error) {
	f.topoCalls++
	f.topoParams = params
	return &api.TopologyResult{OK: true, NewEdgeCount: 3}, nil
}

func (f *fakeMapProc) ProcessAnchoring(ctx context.Context, params api.AnchoringParams) (*api.AnchoringResult, error) {
	f.anchorCalls++
	return &api.AnchoringResult{OK: true, Iterations: 7}, nil
}

type fakeImage struct {
	images []api.ImageCapture
	calls  int
}

func (f *fakeImage) GetImageFromSources(ctx context.Context, sources []string) ([]api.ImageCapture, error) {
	f.calls++
	return f.images, nil
}

// fakeUI replays scripted answers.
type fakeUI struct {
	selects []string
	inputs  []string
}

func (f *fakeUI) Select(title string, choices []Choice) (string, error) {
	if len(f.selects) == 0 {
		return choices[len(choices)-1].Value, nil
	}
	v := f.selects[0]
	f.selects = f.selects[1:]
	return v, nil
}

func (f *fakeUI) Input(prompt string) (string, error) {
	if len(f.inputs) == 0 {
		return "", nil
	}
	v := f.inputs[0]
	f.inputs = f.inputs[1:]
	return v, nil
}

// --- helpers ---------------------------------------------------------------

type testEnv struct {
	s        *Session
	out      *bytes.Buffer
	graphNav *fakeGraphNav
	rec      *fakeRecording
	mapProc  *fakeMapProc
	image    *fakeImage
	ui       *fakeUI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, t.TempDir())
}

func bufioScanner(input string) *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(input))
}

func twoWaypointGraph() *nav.Graph {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &nav.Graph{
		Waypoints: []nav.Waypoint{
			{ID: "quiet-marmot-1", Name: "dock", CreatedAt: t0, Pose: nav.SE3Pose{Position: nav.Vec3{X: 1}, Rotation: nav.Identity()}},
			{ID: "sleepy-badger-2", Name: "hall", CreatedAt: t0.Add(time.Minute), Pose: nav.SE3Pose{Position: nav.Vec3{X: 3}, Rotation: nav.Identity()}},
		},
	}
}

// --- dispatch --------------------------------------------------------------

func TestDispatch_EachKnownCommandInvokesItsHandlerOnce(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()
	env.graphNav.localized = "quiet-marmot-1"
	ctx := context.Background()

	tests := []struct {
		line  string
		calls func() int
	}{
		{"0", func() int { return env.graphNav.clearCalls }},
		{"1", func() int { return env.rec.startCalls }},
		{"2", func() int { return env.rec.stopCalls }},
		{"3", func() int { return env.rec.statusCalls }},
		{"4 lab", func() int { return env.rec.waypointCalls }},
		{"7 dock hall", func() int { return env.rec.edgeCalls }},
		{"a", func() int { return env.mapProc.anchorCalls }},
	}

	for _, tt := range tests {
		before := tt.calls()
		quit, err := env.s.Dispatch(ctx, tt.line)
		require.NoError(t, err, "line %q", tt.line)
		assert.False(t, quit, "line %q", tt.line)
		assert.Equal(t, before+1, tt.calls(), "line %q must invoke its handler exactly once", tt.line)
	}
}

func TestDispatch_UnknownTokenLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quit, err := env.s.Dispatch(ctx, "x 1 2 3")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, env.out.String(), "not in the known command dictionary")

	assert.Zero(t, env.graphNav.downloadCalls)
	assert.Zero(t, env.graphNav.clearCalls)
	assert.Zero(t, env.rec.startCalls+env.rec.stopCalls+env.rec.statusCalls+env.rec.waypointCalls+env.rec.edgeCalls)
	assert.Nil(t, env.s.graph)
}

func TestDispatch_QuitAndBlankLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quit, err := env.s.Dispatch(ctx, "q")
	require.NoError(t, err)
	assert.True(t, quit)

	quit, err = env.s.Dispatch(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, quit)
}

func TestRun_SurvivesCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	env.rec.stopErr = fmt.Errorf("lease lost")
	// Stop fails, status still dispatches, then quit.
	env.s.in = bufioScanner("2\n3\nq\n")

	err := env.s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, env.rec.stopCalls)
	assert.Equal(t, 1, env.rec.statusCalls)
	assert.Contains(t, env.out.String(), "lease lost")
}

func TestMenu_ListsAllCommands(t *testing.T) {
	env := newTestEnv(t)
	menu := env.s.Menu()
	for _, key := range []string{"(0)", "(1)", "(2)", "(3)", "(4)", "(5)", "(6)", "(7)", "(8)", "(9)", "(a)", "(o)", "(q)"} {
		assert.Contains(t, menu, key)
	}
}

// --- recording -------------------------------------------------------------

func TestStopRecording_RetriesWhileNotReady(t *testing.T) {
	const notReadyTimes = 4
	env := newTestEnv(t)
	env.rec.recording = true
	env.rec.stopNotReady = notReadyTimes

	err := env.s.StopRecording(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, notReadyTimes+1, env.rec.stopCalls, "one call per not-ready plus the success")
	assert.Contains(t, env.out.String(), "Cleaning up recording")
	assert.Contains(t, env.out.String(), "Successfully stopped recording")
}

func TestStopRecording_NonTransientErrorStopsRetrying(t *testing.T) {
	env := newTestEnv(t)
	env.rec.stopErr = fmt.Errorf("permission denied")

	err := env.s.StopRecording(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, env.rec.stopCalls, "non-transient failure must not retry")
}

func TestStartRecording_RefusedWhenNotLocalized(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()
	env.graphNav.localized = "" // map exists, not localized

	err := env.s.StartRecording(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, env.rec.startCalls)
	assert.Contains(t, env.out.String(), "not in the proper state")
}

func TestStartRecording_EmptyGraphStarts(t *testing.T) {
	env := newTestEnv(t)

	err := env.s.StartRecording(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, env.rec.startCalls)
}

// --- listing ---------------------------------------------------------------

func TestListGraph_PrintsWaypointsWithLocalizedMarker(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()
	env.graphNav.localized = "quiet-marmot-1"

	quit, err := env.s.Dispatch(context.Background(), "6")
	require.NoError(t, err)
	assert.False(t, quit)

	out := env.out.String()
	assert.Contains(t, out, "2 waypoints:")
	assert.Contains(t, out, "-> Waypoint name: dock id: quiet-marmot-1 short code: qm")
	assert.Contains(t, out, "   Waypoint name: hall id: sleepy-badger-2 short code: sb")
	assert.Contains(t, out, "0 edges:")
}

func TestListGraph_LocalizationFailureIsReported(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()
	env.graphNav.locErr = fmt.Errorf("service timeout")

	err := env.s.ListGraph(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "Could not get localization state")
	assert.NotContains(t, env.out.String(), "->", "no waypoint may be marked localized")
}

// --- edges and loops -------------------------------------------------------

func TestCreateEdge_WrongArgCount(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{nil, {"dock"}, {"a", "b", "c"}} {
		err := env.s.CreateEdge(context.Background(), args)
		require.Error(t, err)
		assert.Equal(t, KindInput, Classify(err))
	}
	assert.Zero(t, env.rec.edgeCalls)
}

func TestCreateEdge_ResolvesAgainstLatestGraph(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()

	err := env.s.CreateEdge(context.Background(), []string{"dock", "hall"})
	require.NoError(t, err)
	require.Len(t, env.rec.edges, 1)

	edge := env.rec.edges[0]
	assert.Equal(t, "quiet-marmot-1", edge.FromID)
	assert.Equal(t, "sleepy-badger-2", edge.ToID)
	// from_T_to for two identity-rotation poses 2m apart on x.
	assert.InDelta(t, -2.0, edge.Transform.Position.X, 1e-9)
}

func TestCreateEdge_UnresolvableReferenceIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()

	err := env.s.CreateEdge(context.Background(), []string{"dock", "kitchen"})
	require.Error(t, err)
	assert.Equal(t, KindInput, Classify(err))
	assert.Zero(t, env.rec.edgeCalls, "unresolved reference must not create an edge")
}

func TestCreateLoop_RefusesWithFewerThanTwoWaypoints(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = &nav.Graph{Waypoints: []nav.Waypoint{{ID: "only-one-1"}}}

	err := env.s.CreateLoop(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, KindInput, Classify(err))
	assert.Contains(t, err.Error(), "at least two")
	assert.Zero(t, env.rec.edgeCalls)
}

func TestCreateLoop_ConnectsLastToFirst(t *testing.T) {
	env := newTestEnv(t)
	env.graphNav.graph = twoWaypointGraph()

	err := env.s.CreateLoop(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, env.rec.edges, 1)
	assert.Equal(t, "sleepy-badger-2", env.rec.edges[0].FromID)
	assert.Equal(t, "quiet-marmot-1", env.rec.edges[0].ToID)
}

// --- map processing --------------------------------------------------------

func TestAutoCloseLoops_ChoiceSelectsStrategies(t *testing.T) {
	tests := []struct {
		choice           string
		fiducial, odo    bool
		wantTopoCalls    int
	}{
		{"all", true, true, 1},
		{"fiducial", true, false, 1},
		{"odometry", false, true, 1},
		{"back", false, false, 0},
	}

	for _, tt := range tests {
		env := newTestEnv(t)
		env.ui.selects = []string{tt.choice}

		err := env.s.AutoCloseLoops(context.Background(), nil)
		require.NoError(t, err, "choice %s", tt.choice)
		assert.Equal(t, tt.wantTopoCalls, env.mapProc.topoCalls, "choice %s", tt.choice)
		if tt.wantTopoCalls > 0 {
			assert.Equal(t, tt.fiducial, env.mapProc.topoParams.CloseFiducialLoops, "choice %s", tt.choice)
			assert.Equal(t, tt.odo, env.mapProc.topoParams.CloseOdometryLoops, "choice %s", tt.choice)
			assert.True(t, env.mapProc.topoParams.ModifyMapOnServer)
			assert.Contains(t, env.out.String(), "3 new edge(s)")
		}
	}
}

func TestOptimizeAnchoring_PrintsIterations(t *testing.T) {
	env := newTestEnv(t)

	err := env.s.OptimizeAnchoring(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, env.mapProc.anchorCalls)
	assert.Contains(t, env.out.String(), "7 iteration(s)")
}
