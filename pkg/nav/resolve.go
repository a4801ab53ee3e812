package nav

import (
	"fmt"
	"sort"
	"strings"
)

// ErrAmbiguousName reports an annotation name shared by multiple waypoints.
type ErrAmbiguousName struct{ Name string }

func (e ErrAmbiguousName) Error() string {
	return fmt.Sprintf("waypoint name %q is used by multiple waypoints in the graph", e.Name)
}

// ErrWaypointNotFound reports a reference that matched no waypoint.
type ErrWaypointNotFound struct{ Ref string }

func (e ErrWaypointNotFound) Error() string {
	return fmt.Sprintf("waypoint %q not found in graph", e.Ref)
}

// ShortCode derives a two-letter code from a waypoint id. Ids look like
// "quiet-marmot-abc123...": the code is the first letter of the first two
// dash-separated tokens. Returns "" when the id has no such structure.
func ShortCode(id string) string {
	tokens := strings.Split(id, "-")
	if len(tokens) < 2 || tokens[0] == "" || tokens[1] == "" {
		return ""
	}
	return tokens[0][:1] + tokens[1][:1]
}

// NameToID maps annotation names to waypoint ids for a graph. Names used by
// more than one waypoint map to the empty string so that lookups can report
// the ambiguity instead of silently picking one.
func NameToID(g *Graph) map[string]string {
	m := make(map[string]string)
	for _, wp := range g.Waypoints {
		if wp.Name == "" {
			continue
		}
		if _, seen := m[wp.Name]; seen {
			m[wp.Name] = ""
			continue
		}
		m[wp.Name] = wp.ID
	}
	return m
}

// EdgesByDestination maps each to-waypoint id to the list of from-waypoint
// ids that have an edge into it.
func EdgesByDestination(g *Graph) map[string][]string {
	m := make(map[string][]string)
	for _, e := range g.Edges {
		m[e.ToID] = append(m[e.ToID], e.FromID)
	}
	return m
}

// ResolveWaypoint resolves a user-supplied reference to a waypoint id against
// a graph snapshot. A two-character reference is treated as a short code and
// must match exactly one waypoint. Anything longer is tried first as an
// annotation name, then as a full waypoint id. A reference that matches
// nothing yields ErrWaypointNotFound, never a panic or a guessed id.
func ResolveWaypoint(ref string, g *Graph, nameToID map[string]string) (string, error) {
	if g == nil {
		return "", ErrWaypointNotFound{Ref: ref}
	}
	if len(ref) == 2 {
		var match string
		for _, wp := range g.Waypoints {
			if ShortCode(wp.ID) != ref {
				continue
			}
			if match != "" {
				// Short code collision: fall through to name/id lookup.
				match = ""
				break
			}
			match = wp.ID
		}
		if match != "" {
			return match, nil
		}
	}
	if id, ok := nameToID[ref]; ok {
		if id == "" {
			return "", ErrAmbiguousName{Name: ref}
		}
		return id, nil
	}
	if _, ok := g.Waypoint(ref); ok {
		return ref, nil
	}
	return "", ErrWaypointNotFound{Ref: ref}
}

// SortChrono returns the graph's waypoints ordered by creation time.
func SortChrono(g *Graph) []Waypoint {
	sorted := make([]Waypoint, len(g.Waypoints))
	copy(sorted, g.Waypoints)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// FormatWaypoint renders one waypoint for listing. The localized waypoint is
// marked with an arrow.
func FormatWaypoint(wp Waypoint, localizedID string) string {
	marker := "  "
	if wp.ID == localizedID {
		marker = "->"
	}
	name := wp.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s Waypoint name: %s id: %s short code: %s", marker, name, wp.ID, ShortCode(wp.ID))
}
