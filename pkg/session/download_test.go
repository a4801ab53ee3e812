package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/graphrec/pkg/api"
	"github.com/gwillem/graphrec/pkg/nav"
)

// newTestEnvAt is newTestEnv with a caller-owned download directory.
func newTestEnvAt(t *testing.T, dir string) *testEnv {
	t.Helper()
	env := &testEnv{
		out:      &bytes.Buffer{},
		graphNav: &fakeGraphNav{},
		rec:      &fakeRecording{},
		mapProc:  &fakeMapProc{},
		image:    &fakeImage{},
		ui:       &fakeUI{},
	}
	env.s = New(Params{
		GraphNav:      env.graphNav,
		Recording:     env.rec,
		MapProcessing: env.mapProc,
		Image:         env.image,
		DownloadPath:  dir,
		Meta:          api.SessionMetadata{SessionName: "test", UserName: "tester"},
		In:            strings.NewReader(""),
		Out:           env.out,
		UI:            env.ui,
	})
	env.s.stopInterval = time.Millisecond
	return env
}

func TestDownloadFullGraph_WritesGraphAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnvAt(t, dir)

	snaps := map[string][]byte{
		"snap-a": {0x01, 0x02},
		"snap-b": {0x03},
		"snap-c": {0xfe, 0xff, 0x00},
	}
	env.graphNav.wpSnaps = snaps
	env.graphNav.edgeSnaps = map[string][]byte{"esnap-1": {0xaa, 0xbb}}
	env.graphNav.graph = &nav.Graph{
		Waypoints: []nav.Waypoint{
			{ID: "w-1-a", SnapshotID: "snap-a"},
			{ID: "w-2-b", SnapshotID: "snap-b"},
			{ID: "w-3-c", SnapshotID: "snap-c"},
			{ID: "w-4-d"}, // no snapshot, must be skipped
		},
		Edges: []nav.Edge{
			{FromID: "w-1-a", ToID: "w-2-b", SnapshotID: "esnap-1"},
			{FromID: "w-2-b", ToID: "w-3-c"},
		},
	}

	err := env.s.DownloadFullGraph(context.Background(), nil)
	require.NoError(t, err)

	root := filepath.Join(dir, "downloaded_graph")
	_, err = os.Stat(filepath.Join(root, "graph"))
	require.NoError(t, err, "graph file must exist")

	// Exactly one file per non-empty waypoint snapshot id, byte-identical.
	entries, err := os.ReadDir(filepath.Join(root, "waypoint_snapshots"))
	require.NoError(t, err)
	assert.Len(t, entries, len(snaps))
	for id, want := range snaps {
		got, err := os.ReadFile(filepath.Join(root, "waypoint_snapshots", id))
		require.NoError(t, err)
		assert.Equal(t, want, got, "snapshot %s", id)
	}

	got, err := os.ReadFile(filepath.Join(root, "edge_snapshots", "esnap-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, got)
}

func TestDownloadFullGraph_EmptyGraphIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnvAt(t, dir)

	err := env.s.DownloadFullGraph(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "empty")

	_, statErr := os.Stat(filepath.Join(dir, "downloaded_graph"))
	assert.True(t, os.IsNotExist(statErr), "no files should be written for an empty graph")
}

func TestDownloadFullGraph_FailedSnapshotIsSkipped(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnvAt(t, dir)

	env.graphNav.wpSnaps = map[string][]byte{"snap-ok": {0x01}}
	env.graphNav.failWPSnaps = map[string]bool{"snap-bad": true}
	env.graphNav.graph = &nav.Graph{
		Waypoints: []nav.Waypoint{
			{ID: "w-1-a", SnapshotID: "snap-bad"},
			{ID: "w-2-b", SnapshotID: "snap-ok"},
		},
	}

	err := env.s.DownloadFullGraph(context.Background(), nil)
	require.NoError(t, err, "one failed snapshot must not fail the download")

	entries, err := os.ReadDir(filepath.Join(dir, "downloaded_graph", "waypoint_snapshots"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, env.out.String(), "Failed to download waypoint snapshot snap-bad")
}
