// Package graphrec provides command line tools for recording navigation maps
// on a graph-nav robot.
//
// The robot exposes its recording, navigation and map-processing services over
// a remote RPC API. graphrec drives those services from an operator's laptop:
// start and stop a recording session, create waypoints and edges, download the
// recorded graph with its sensor snapshots, close loops and optimize the map's
// anchoring.
//
// # Usage
//
// Start an interactive recording session:
//
//	graphrec record --host 192.168.80.3 --download-path ./maps
//
// Watch recording progress live:
//
//	graphrec watch
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/graphrec: CLI with record, watch and power commands
//   - pkg/nav: graph data model, pose math and waypoint resolution
//   - pkg/api: typed clients for the robot's remote services
//   - pkg/session: the interactive recording session and command dispatch
package graphrec
