package photosync

import (
	"context"
	"fmt"
	"os/exec"
)

// Importer pushes a staged image into the photo library the automation UI
// picks images from. This is an external collaborator; the worker only cares
// about success or failure.
type Importer interface {
	Import(ctx context.Context, path string) error
}

// PhotosAppImporter drives the macOS Photos app via AppleScript
type PhotosAppImporter struct{}

// Import runs an osascript import for the given file
func (PhotosAppImporter) Import(ctx context.Context, path string) error {
	script := fmt.Sprintf(`
tell application "Photos"
	activate
	delay 1
	import POSIX file "%s"
	delay 3
end tell
`, path)

	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript import: %w: %s", err, string(output))
	}
	return nil
}

// NoopImporter skips the library import, for platforms without the Photos app
type NoopImporter struct{}

// Import does nothing
func (NoopImporter) Import(ctx context.Context, path string) error {
	return nil
}
