package api

import "context"

// MapProcessingClient binds the map-processing service: loop closure and
// anchoring optimization. The solvers run on the robot; the response only
// reports what changed.
type MapProcessingClient struct {
	c *Client
}

// TopologyParams selects which loop-closure strategies to run.
type TopologyParams struct {
	CloseFiducialLoops bool `json:"close_fiducial_loops"`
	CloseOdometryLoops bool `json:"close_odometry_loops"`
	ModifyMapOnServer  bool `json:"modify_map_on_server"`
}

// TopologyResult reports the edges added by loop closure.
type TopologyResult struct {
	OK           bool `json:"ok"`
	NewEdgeCount int  `json:"new_edge_count"`
}

// ProcessTopology finds and closes loops in the graph on the robot.
func (m *MapProcessingClient) ProcessTopology(ctx context.Context, params TopologyParams) (*TopologyResult, error) {
	var result TopologyResult
	if err := m.c.call(ctx, "map-processing/process-topology", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnchoringParams configures anchoring optimization.
type AnchoringParams struct {
	ModifyAnchoringOnServer bool `json:"modify_anchoring_on_server"`
}

// AnchoringResult reports the outcome of anchoring optimization.
type AnchoringResult struct {
	OK         bool `json:"ok"`
	Iterations int  `json:"iterations"`
}

// ProcessAnchoring computes a globally consistent reference frame for all
// waypoints.
func (m *MapProcessingClient) ProcessAnchoring(ctx context.Context, params AnchoringParams) (*AnchoringResult, error) {
	var result AnchoringResult
	if err := m.c.call(ctx, "map-processing/process-anchoring", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
