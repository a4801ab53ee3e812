package api

import (
	"context"

	"github.com/gwillem/graphrec/pkg/nav"
)

// RecordingClient binds the map-recording service.
type RecordingClient struct {
	c *Client
}

// SessionMetadata tags a recording session with operator information. Set
// once when recording starts.
type SessionMetadata struct {
	SessionName string `json:"session_name"`
	UserName    string `json:"user_name"`
	ClientID    string `json:"client_id"`
}

// RecordStatus is the recording service's current state.
type RecordStatus struct {
	IsRecording   bool   `json:"is_recording"`
	SessionName   string `json:"session_name,omitempty"`
	WaypointCount int    `json:"waypoint_count"`
}

// StartRecording begins a new recording session tagged with meta.
func (r *RecordingClient) StartRecording(ctx context.Context, meta SessionMetadata) error {
	return r.c.call(ctx, "recording/start", meta, nil)
}

// StopRecording stops the current recording session. While the service is
// still finishing background processing it fails with ErrNotReady; the caller
// decides the retry policy.
func (r *RecordingClient) StopRecording(ctx context.Context) error {
	return r.c.call(ctx, "recording/stop", struct{}{}, nil)
}

// GetRecordStatus returns whether the service is currently recording.
func (r *RecordingClient) GetRecordStatus(ctx context.Context) (*RecordStatus, error) {
	var status RecordStatus
	if err := r.c.call(ctx, "recording/status", struct{}{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

type createWaypointRequest struct {
	Name string `json:"name"`
}

type createWaypointResponse struct {
	WaypointID string `json:"waypoint_id"`
}

// CreateWaypoint creates a waypoint at the robot's current location and
// returns its id.
func (r *RecordingClient) CreateWaypoint(ctx context.Context, name string) (string, error) {
	var resp createWaypointResponse
	if err := r.c.call(ctx, "recording/create-waypoint", createWaypointRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.WaypointID, nil
}

// CreateEdge adds an edge between two existing waypoints. Both endpoints must
// exist in the map on the robot.
func (r *RecordingClient) CreateEdge(ctx context.Context, edge nav.Edge) error {
	return r.c.call(ctx, "recording/create-edge", edge, nil)
}
