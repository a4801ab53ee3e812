package api

import (
	"context"

	"github.com/gwillem/graphrec/pkg/nav"
)

// GraphNavClient binds the graph-nav service: graph download/upload, snapshot
// download, localization state and graph clearing.
type GraphNavClient struct {
	c *Client
}

// LocalizationState describes where the robot believes it is in the map.
type LocalizationState struct {
	WaypointID string `json:"waypoint_id"`
	SeedValid  bool   `json:"seed_valid"`
}

// DownloadGraph fetches the current map topology from the robot. An empty
// graph is a valid result, not an error.
func (g *GraphNavClient) DownloadGraph(ctx context.Context) (*nav.Graph, error) {
	var graph nav.Graph
	if err := g.c.call(ctx, "graph-nav/download-graph", struct{}{}, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

// UploadGraph replaces the map topology on the robot.
func (g *GraphNavClient) UploadGraph(ctx context.Context, graph *nav.Graph) error {
	return g.c.call(ctx, "graph-nav/upload-graph", graph, nil)
}

// GetLocalizationState returns the robot's current localization.
func (g *GraphNavClient) GetLocalizationState(ctx context.Context) (*LocalizationState, error) {
	var state LocalizationState
	if err := g.c.call(ctx, "graph-nav/localization-state", struct{}{}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ClearGraph removes all waypoints and edges from the map on the robot.
func (g *GraphNavClient) ClearGraph(ctx context.Context) error {
	return g.c.call(ctx, "graph-nav/clear-graph", struct{}{}, nil)
}

type snapshotRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

// DownloadWaypointSnapshot fetches the raw sensor bundle for a waypoint.
func (g *GraphNavClient) DownloadWaypointSnapshot(ctx context.Context, id string) ([]byte, error) {
	return g.c.download(ctx, "graph-nav/waypoint-snapshot", snapshotRequest{SnapshotID: id})
}

// DownloadEdgeSnapshot fetches the raw sensor bundle for an edge.
func (g *GraphNavClient) DownloadEdgeSnapshot(ctx context.Context, id string) ([]byte, error) {
	return g.c.download(ctx, "graph-nav/edge-snapshot", snapshotRequest{SnapshotID: id})
}
