package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gwillem/graphrec/pkg/nav"
)

// DownloadFullGraph downloads the graph and every waypoint and edge snapshot
// into the session's download directory.
func (s *Session) DownloadFullGraph(ctx context.Context, args []string) error {
	graph, err := s.graphNav.DownloadGraph(ctx)
	if err != nil {
		return fmt.Errorf("download graph: %w", err)
	}
	if graph.Empty() {
		s.printf("The graph is empty; nothing to download.")
		return nil
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := writeBytes(s.downloadPath, "graph", data); err != nil {
		return err
	}
	s.printf("Graph downloaded with %d waypoints and %d edges.", len(graph.Waypoints), len(graph.Edges))

	s.downloadWaypointSnapshots(ctx, graph.Waypoints)
	s.downloadEdgeSnapshots(ctx, graph.Edges)
	return nil
}

// downloadWaypointSnapshots writes one file per waypoint snapshot. A failed
// snapshot is reported and skipped; the rest still download.
func (s *Session) downloadWaypointSnapshots(ctx context.Context, waypoints []nav.Waypoint) {
	dir := filepath.Join(s.downloadPath, "waypoint_snapshots")
	total := 0
	for _, wp := range waypoints {
		if wp.SnapshotID != "" {
			total++
		}
	}
	downloaded := 0
	for _, wp := range waypoints {
		if wp.SnapshotID == "" {
			continue
		}
		data, err := s.graphNav.DownloadWaypointSnapshot(ctx, wp.SnapshotID)
		if err != nil {
			s.printf("Failed to download waypoint snapshot %s: %v", wp.SnapshotID, err)
			continue
		}
		if err := writeBytes(dir, wp.SnapshotID, data); err != nil {
			s.printf("%v", err)
			continue
		}
		downloaded++
		s.printf("Downloaded %d of the total %d waypoint snapshots.", downloaded, total)
	}
}

// downloadEdgeSnapshots mirrors downloadWaypointSnapshots for edges.
func (s *Session) downloadEdgeSnapshots(ctx context.Context, edges []nav.Edge) {
	dir := filepath.Join(s.downloadPath, "edge_snapshots")
	total := 0
	for _, e := range edges {
		if e.SnapshotID != "" {
			total++
		}
	}
	downloaded := 0
	for _, e := range edges {
		if e.SnapshotID == "" {
			continue
		}
		data, err := s.graphNav.DownloadEdgeSnapshot(ctx, e.SnapshotID)
		if err != nil {
			s.printf("Failed to download edge snapshot %s: %v", e.SnapshotID, err)
			continue
		}
		if err := writeBytes(dir, e.SnapshotID, data); err != nil {
			s.printf("%v", err)
			continue
		}
		downloaded++
		s.printf("Downloaded %d of the total %d edge snapshots.", downloaded, total)
	}
}

func writeBytes(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
