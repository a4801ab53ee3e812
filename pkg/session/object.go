package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gwillem/graphrec/pkg/nav"
)

// AddObject attaches named object annotations to waypoints while recording.
// The operator either creates a fresh waypoint at the robot's location or
// annotates an existing one; each object is a name plus a pixel location in a
// camera image, which is saved locally for reference.
func (s *Session) AddObject(ctx context.Context, args []string) error {
	status, err := s.rec.GetRecordStatus(ctx)
	if err != nil {
		return fmt.Errorf("get record status: %w", err)
	}
	if !status.IsRecording {
		s.printf("Start recording to capture objects.")
		return nil
	}

	for {
		choice, err := s.ui.Select("Capture object:", []Choice{
			{Label: "Create a waypoint at the robot location and capture objects", Value: "new"},
			{Label: "Add objects to an existing waypoint", Value: "existing"},
			{Label: "Done", Value: "done"},
		})
		if err != nil {
			return err
		}

		switch choice {
		case "new":
			name, err := s.ui.Input("Waypoint name")
			if err != nil {
				return err
			}
			if name == "" {
				s.printf("A waypoint name is required.")
				continue
			}
			if _, err := s.rec.CreateWaypoint(ctx, name); err != nil {
				return fmt.Errorf("create waypoint %q: %w", name, err)
			}
			s.printf("Successfully created waypoint %s.", name)
			if err := s.captureObjects(ctx, name); err != nil {
				s.printf("Error: %v", err)
			}
		case "existing":
			name, err := s.ui.Input("Waypoint name")
			if err != nil {
				return err
			}
			if err := s.captureObjects(ctx, name); err != nil {
				s.printf("Error: %v", err)
			}
		default:
			return nil
		}
	}
}

// captureObjects fetches a camera image, collects object annotations from the
// operator and uploads the modified graph.
func (s *Session) captureObjects(ctx context.Context, waypointName string) error {
	if waypointName == "" {
		return inputErrorf("a waypoint name is required")
	}

	graph, err := s.graphNav.DownloadGraph(ctx)
	if err != nil {
		return fmt.Errorf("download graph: %w", err)
	}
	wp, ok := graph.WaypointByName(waypointName)
	if !ok {
		return nav.ErrWaypointNotFound{Ref: waypointName}
	}

	images, err := s.image.GetImageFromSources(ctx, []string{s.imageSource})
	if err != nil {
		return fmt.Errorf("get image from %s: %w", s.imageSource, err)
	}
	if len(images) != 1 {
		return fmt.Errorf("got %d images from %s, want 1", len(images), s.imageSource)
	}
	img := images[0]

	imgName := waypointName + "." + imageExt(img.Format)
	imgDir := filepath.Join(s.downloadPath, "object_images")
	if err := writeBytes(imgDir, imgName, img.Data); err != nil {
		return err
	}
	s.printf("Saved camera image to %s.", filepath.Join(imgDir, imgName))

	objects := make(map[string]nav.ObjectAnnotation)
	for {
		name, err := s.ui.Input("Object name (empty to finish)")
		if err != nil {
			return err
		}
		if name == "" {
			break
		}
		x, err := s.inputPixel("Pixel x")
		if err != nil {
			return err
		}
		y, err := s.inputPixel("Pixel y")
		if err != nil {
			return err
		}
		objects[name] = nav.ObjectAnnotation{PixelX: x, PixelY: y, ImageSource: img.Source}
		s.printf("Object %q added at (%d, %d).", name, x, y)
	}
	if len(objects) == 0 {
		s.printf("No objects added.")
		return nil
	}

	// Attach the annotations and push the modified graph back.
	for i := range graph.Waypoints {
		if graph.Waypoints[i].ID != wp.ID {
			continue
		}
		if graph.Waypoints[i].Objects == nil {
			graph.Waypoints[i].Objects = make(map[string]nav.ObjectAnnotation)
		}
		for name, obj := range objects {
			graph.Waypoints[i].Objects[name] = obj
		}
	}
	if err := s.graphNav.UploadGraph(ctx, graph); err != nil {
		return fmt.Errorf("upload graph: %w", err)
	}
	s.printf("Successfully added %d object(s) to waypoint %s.", len(objects), waypointName)
	return nil
}

func (s *Session) inputPixel(prompt string) (int, error) {
	raw, err := s.ui.Input(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, inputErrorf("%s must be a non-negative integer, got %q", prompt, raw)
	}
	return v, nil
}

func imageExt(format string) string {
	if format == "raw" {
		return "bin"
	}
	return "jpg"
}
