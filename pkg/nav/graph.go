// Package nav provides the graph data model for a robot navigation map:
// waypoints, edges, pose math and waypoint resolution.
package nav

import "time"

// Waypoint is a named pose anchor in the navigation graph.
type Waypoint struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	SnapshotID string    `json:"snapshot_id,omitempty"`

	// Pose is the transform of the robot's kinematic odometry frame in
	// this waypoint's frame (waypoint_T_odom) at creation time.
	Pose SE3Pose `json:"pose"`

	// Objects holds named object annotations attached to this waypoint.
	Objects map[string]ObjectAnnotation `json:"objects,omitempty"`
}

// Edge is a directed, transform-carrying connection between two waypoints.
type Edge struct {
	FromID     string  `json:"from_id"`
	ToID       string  `json:"to_id"`
	Transform  SE3Pose `json:"transform"`
	SnapshotID string  `json:"snapshot_id,omitempty"`
}

// ObjectAnnotation marks an object visible from a waypoint, identified by a
// pixel location in a camera image.
type ObjectAnnotation struct {
	PixelX      int    `json:"pixel_x"`
	PixelY      int    `json:"pixel_y"`
	ImageSource string `json:"image_source"`
}

// Graph is a snapshot of the map topology on the robot. It is immutable until
// re-downloaded; callers holding a Graph decide when to refresh it.
type Graph struct {
	Waypoints []Waypoint `json:"waypoints"`
	Edges     []Edge     `json:"edges"`
}

// Empty reports whether the graph has no waypoints.
func (g *Graph) Empty() bool {
	return g == nil || len(g.Waypoints) == 0
}

// Waypoint returns the waypoint with the given id.
func (g *Graph) Waypoint(id string) (Waypoint, bool) {
	for _, wp := range g.Waypoints {
		if wp.ID == id {
			return wp, true
		}
	}
	return Waypoint{}, false
}

// WaypointByName returns the waypoint with the given annotation name.
func (g *Graph) WaypointByName(name string) (Waypoint, bool) {
	for _, wp := range g.Waypoints {
		if wp.Name == name {
			return wp, true
		}
	}
	return Waypoint{}, false
}

// EdgeTransform computes the relative transform for an edge between two
// waypoints from their odometry poses: from_T_to = from_T_odom * (to_T_odom)^-1.
func EdgeTransform(from, to Waypoint) SE3Pose {
	return from.Pose.Mul(to.Pose.Inverse())
}
