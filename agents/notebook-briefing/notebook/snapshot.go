package notebook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const snapshotTimeout = 10 * time.Second

// SnapshotPath is where the page dump for a failed step named name is written
func SnapshotPath(dir, name string) string {
	return filepath.Join(dir, "debug_"+name+".html")
}

// snapshot dumps the rendered page for offline selector work. It runs even when
// ctx is already done so that the failing state is still captured.
func (d *Driver) snapshot(ctx context.Context, name string) {
	snapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	path, err := d.writeSnapshot(snapCtx, name)
	if err != nil {
		d.log.Warn("Failed to write debug snapshot", "name", name, "error", err)
		return
	}
	d.log.Info("Saved debug snapshot", "path", path)
}

func (d *Driver) writeSnapshot(ctx context.Context, name string) (string, error) {
	html, err := d.page.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	if err := os.MkdirAll(d.opts.DebugDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug directory: %w", err)
	}
	path := SnapshotPath(d.opts.DebugDir, name)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}
