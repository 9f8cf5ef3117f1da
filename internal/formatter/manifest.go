package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/spx/internal/shared"
)

// ManifestFilename is written at the root of every bulk export directory.
const ManifestFilename = "export_manifest.json"

// Manifest summarizes a bulk export.
type Manifest struct {
	Format            Format          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Playlists         []ManifestEntry `json:"playlists"`
}

// ManifestEntry records the outcome for one playlist.
type ManifestEntry struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Status       string   `json:"status"`
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Add appends an entry and updates the counters.
func (m *Manifest) Add(id, name string, files []string, err error) {
	entry := ManifestEntry{PlaylistID: id, PlaylistName: name, Status: StatusSuccess, Files: files}
	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		entry.Files = nil
		m.FailedExports++
	} else {
		m.SuccessfulExports++
	}
	m.Playlists = append(m.Playlists, entry)
}

// WriteBulkExportManifest writes m as indented JSON to path.
func WriteBulkExportManifest(m *Manifest, path string) error {
	if m.ExportedAt.IsZero() {
		m.ExportedAt = time.Now().UTC()
	}
	if m.Playlists == nil {
		m.Playlists = []ManifestEntry{}
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
