// Package formatter renders playlist exports as JSON, CSV, Markdown or plain
// text and lays them out on disk.
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the accepted formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or one of its aliases (md, text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

const (
	coverFilename = "cover.jpg"
	maxCoverBytes = 10 << 20
)

var csvHeader = []string{"ID", "Title", "Artist", "Album", "Duration", "ISRC", "URI"}

var imageClient = &http.Client{Timeout: 30 * time.Second}

// Render writes export to w in format f. Markdown is rendered without a cover.
func Render(w io.Writer, f Format, export *models.PlaylistExport) error {
	switch f {
	case FormatCSV:
		return renderCSV(w, export)
	case FormatMarkdown:
		return renderMarkdown(w, export, "")
	case FormatText:
		return renderText(w, export)
	case FormatJSON:
		return renderJSON(w, export)
	}
	return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

func renderJSON(w io.Writer, v any) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// renderCSV writes one row per track under csvHeader. Duration is in seconds.
func renderCSV(w io.Writer, export *models.PlaylistExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, t := range export.Tracks {
		row := []string{t.ID, t.Title, t.Artist, t.Album, strconv.Itoa(t.Duration), t.ISRC, t.URI}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, export *models.PlaylistExport, cover string) error {
	var b bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	if cover != "" {
		fmt.Fprintf(&b, "![Cover](%s)\n\n", cover)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "**Description**: %s\n\n", p.Description)
	}
	if p.Owner != "" {
		fmt.Fprintf(&b, "**Owner**: %s\n", p.Owner)
	}
	fmt.Fprintf(&b, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&b, "**Duration**: %s\n", shared.FormatDuration(export.TotalDuration()))
	fmt.Fprintf(&b, "**Visibility**: %s\n\n", shared.VisibilityString(p.Public))

	b.WriteString("## Tracks\n\n")
	for i, t := range export.Tracks {
		fmt.Fprintf(&b, "%d. %s - %s", i+1, t.Artist, t.Title)
		if t.Album != "" {
			fmt.Fprintf(&b, " (%s)", t.Album)
		}
		fmt.Fprintf(&b, " [%s]\n", shared.FormatDuration(t.Duration))
	}

	_, err := b.WriteTo(w)
	return err
}

func renderText(w io.Writer, export *models.PlaylistExport) error {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&b, "Tracks: %d\n\n", len(export.Tracks))
	for i, t := range export.Tracks {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, t.Artist, t.Title, shared.FormatDuration(t.Duration))
	}

	_, err := b.WriteTo(w)
	return err
}

// WriteOptions controls where [Write] puts files.
type WriteOptions struct {
	Base     string // file or directory stem, default the playlist ID
	CoverURL string // markdown only; empty skips the cover
}

// Written lists the files created by [Write]. Warnings hold cover image
// problems, which never fail an export.
type Written struct {
	Files    []string
	Warnings []string
}

// Write renders export into dir:
//
//	json      {base}.json
//	csv       {base}_tracks.csv and {base}_metadata.json
//	txt       {base}_tracks.txt
//	markdown  {base}/README.md and, with a cover URL, {base}/cover.jpg
func Write(ctx context.Context, f Format, export *models.PlaylistExport, dir string, opts WriteOptions) (*Written, error) {
	base := opts.Base
	if base == "" {
		base = export.Playlist.ID
	}
	if base == "" {
		return nil, fmt.Errorf("%w: export has no playlist ID", shared.ErrInvalidInput)
	}

	out := &Written{Files: []string{}}
	add := func(path string, render func(io.Writer) error) error {
		if err := writeFile(path, render); err != nil {
			return err
		}
		out.Files = append(out.Files, path)
		return nil
	}

	switch f {
	case FormatJSON:
		return out, add(filepath.Join(dir, base+".json"), func(w io.Writer) error { return renderJSON(w, export) })

	case FormatCSV:
		if err := add(filepath.Join(dir, base+"_tracks.csv"), func(w io.Writer) error { return renderCSV(w, export) }); err != nil {
			return nil, err
		}
		return out, add(filepath.Join(dir, base+"_metadata.json"), func(w io.Writer) error { return renderJSON(w, export.Playlist) })

	case FormatText:
		return out, add(filepath.Join(dir, base+"_tracks.txt"), func(w io.Writer) error { return renderText(w, export) })

	case FormatMarkdown:
		dir = filepath.Join(dir, base)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}

		cover := ""
		if opts.CoverURL != "" {
			if err := saveCover(ctx, opts.CoverURL, filepath.Join(dir, coverFilename)); err != nil {
				out.Warnings = append(out.Warnings, err.Error())
			} else {
				cover = coverFilename
				out.Files = append(out.Files, filepath.Join(dir, coverFilename))
			}
		}
		return out, add(filepath.Join(dir, "README.md"), func(w io.Writer) error { return renderMarkdown(w, export, cover) })
	}

	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// writeFile renders into memory first so a failed render leaves no partial file.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func saveCover(ctx context.Context, url, path string) error {
	data, err := DownloadImage(ctx, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save cover image: %w", err)
	}
	return nil
}

// DownloadImage fetches a cover image. Bodies over 10 MiB are rejected.
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty image URL", shared.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := imageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download cover image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover image: %w", err)
	}
	if len(data) > maxCoverBytes {
		return nil, fmt.Errorf("cover image exceeds %d bytes", maxCoverBytes)
	}
	return data, nil
}

// ReadJSONExport loads an export previously written in [FormatJSON].
func ReadJSONExport(path string) (*models.PlaylistExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	var export models.PlaylistExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: %s is not a playlist export: %v", shared.ErrInvalidInput, path, err)
	}
	if strings.TrimSpace(export.Playlist.Name) == "" {
		return nil, fmt.Errorf("%w: %s has no playlist name", shared.ErrInvalidInput, path)
	}
	return &export, nil
}
