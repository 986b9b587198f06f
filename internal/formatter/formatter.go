// package formatter renders scan reports, replacement plans and history as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
)

// Format is an output format for scan reports.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// ParseFormat validates a --format value. The empty string means [Text].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, Markdown, CSV, JSON:
		return f, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidFlag, s)
	}
}

// Names resolves track ids to cached metadata without I/O.
// services.TrackCache implements it.
type Names interface {
	TryGet(id string) *models.Track
}

// Options controls rendering. The zero value renders ids only, without colors.
type Options struct {
	Names   Names
	Palette *Palette
	Pretty  bool // Indent JSON
}

// Scan renders a scan result in the given format.
func Scan(result *models.ScanResult, format Format, opts Options) ([]byte, error) {
	switch format {
	case Text, "":
		return ScanToText(result, opts), nil
	case Markdown:
		return ScanToMarkdown(result, opts), nil
	case CSV:
		return ScanToCSV(result, opts)
	case JSON:
		return shared.MarshalJSON(result, opts.Pretty)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ScanToText renders a terminal report grouped by playlist.
func ScanToText(result *models.ScanResult, opts Options) []byte {
	var buf bytes.Buffer
	p := opts.Palette

	if len(result.Playlists) == 0 {
		buf.WriteString(p.OK("No stolen tracks found.") + "\n")
	}

	for _, pl := range result.Playlists {
		fmt.Fprintf(&buf, "%s %s\n", p.Title(pl.Playlist.Name), p.Help(fmt.Sprintf("(%s, %d stolen)", pl.Playlist.ID, len(pl.StolenTracks))))
		for _, s := range pl.StolenTracks {
			fmt.Fprintf(&buf, "  #%-4d %s -> %s", s.Position, s.Track.Name, replacementText(s.Variants, opts))
			if notes := variantNotes(s.Variants); len(notes) > 0 {
				buf.WriteString(" " + p.Help("["+strings.Join(notes, ", ")+"]"))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "%d playlists, %d stolen tracks", len(result.Playlists), result.StolenCount())
	if n := len(result.Errors); n > 0 {
		buf.WriteString(", " + p.Err(fmt.Sprintf("%d errors", n)))
	}
	buf.WriteString("\n")

	if len(result.Errors) > 0 {
		buf.WriteString("\n" + p.Err("Errors:") + "\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&buf, "  %s (%s): %v\n", e.Playlist.Name, e.Playlist.ID, e.Reason)
		}
	}

	return buf.Bytes()
}

// ScanToMarkdown renders a report with one table per playlist.
func ScanToMarkdown(result *models.ScanResult, opts Options) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Stolen Tracks\n\n")
	fmt.Fprintf(&buf, "**Playlists**: %d\n", len(result.Playlists))
	fmt.Fprintf(&buf, "**Stolen tracks**: %d\n\n", result.StolenCount())

	for _, pl := range result.Playlists {
		title := escapeMarkdown(pl.Playlist.Name)
		if pl.Playlist.ExternalURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, pl.Playlist.ExternalURL)
		}
		fmt.Fprintf(&buf, "## %s\n\n", title)
		buf.WriteString("| # | Track | Album | Replacement | Notes |\n")
		buf.WriteString("|---|-------|-------|-------------|-------|\n")
		for _, s := range pl.StolenTracks {
			fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s |\n",
				s.Position,
				escapeMarkdown(s.Track.Name),
				escapeMarkdown(s.Track.Album.Name),
				escapeMarkdown(replacementText(s.Variants, opts)),
				escapeMarkdown(strings.Join(variantNotes(s.Variants), ", ")),
			)
		}
		buf.WriteString("\n")
	}

	if len(result.Errors) > 0 {
		buf.WriteString("## Errors\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&buf, "- **%s**: %s\n", escapeMarkdown(e.Playlist.Name), escapeMarkdown(e.Error()))
		}
	}

	return buf.Bytes()
}

// ScanToCSV renders one row per stolen track with columns:
// playlist_id, playlist_name, position, track_id, track_name, album, isrc, replacement_ids, pre_release_ids, notes
func ScanToCSV(result *models.ScanResult, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"playlist_id", "playlist_name", "position", "track_id", "track_name",
		"album", "isrc", "replacement_ids", "pre_release_ids", "notes",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pl := range result.Playlists {
		for _, s := range pl.StolenTracks {
			pre := make([]string, len(s.Variants.PreReleaseTracks))
			for i, t := range s.Variants.PreReleaseTracks {
				pre[i] = t.ID
			}

			record := []string{
				pl.Playlist.ID,
				pl.Playlist.Name,
				strconv.Itoa(s.Position),
				s.Track.ID,
				s.Track.Name,
				s.Track.Album.Name,
				s.Track.ISRC,
				strings.Join(s.Variants.IDs, ";"),
				strings.Join(pre, ";"),
				strings.Join(variantNotes(s.Variants), ";"),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlanToText summarizes what a replacement run will change.
func PlanToText(plans []models.PlaylistSelection, opts Options) []byte {
	var buf bytes.Buffer
	p := opts.Palette

	if len(plans) == 0 {
		buf.WriteString(p.Warn("Nothing selected for replacement.") + "\n")
		return buf.Bytes()
	}

	inserts := 0
	for _, plan := range plans {
		inserts += len(plan.NewTracks)
		fmt.Fprintf(&buf, "%s %s\n", p.Title(plan.Name), p.Help(fmt.Sprintf("(%d inserts, %d tracks removed)", len(plan.NewTracks), len(plan.StolenIDsToRemove))))
		for _, ins := range plan.NewTracks {
			fmt.Fprintf(&buf, "  #%-4d + %s\n", ins.Position, describe(ins.ReplacementID, opts.Names))
		}
		for _, id := range plan.StolenIDsToRemove {
			fmt.Fprintf(&buf, "        - %s\n", describe(id, opts.Names))
		}
	}
	fmt.Fprintf(&buf, "\n%d playlists, %d replacements\n", len(plans), inserts)

	return buf.Bytes()
}

// ReplaceErrorsToText lists failed playlists, or a success line when there are none.
func ReplaceErrorsToText(errs []models.ReplaceError, planned int, p *Palette) []byte {
	var buf bytes.Buffer
	if len(errs) == 0 {
		fmt.Fprintf(&buf, "%s\n", p.OK(fmt.Sprintf("Updated %d playlists.", planned)))
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "%s\n", p.Warn(fmt.Sprintf("Updated %d of %d playlists.", planned-len(errs), planned)))
	for _, e := range errs {
		fmt.Fprintf(&buf, "  %s %s (%s): %v\n", p.Err("x"), e.Playlist.Name, e.Playlist.ID, e.Reason)
	}
	return buf.Bytes()
}

// JobsToText renders replacement history, one job per line.
func JobsToText(jobs []*models.ReplacementJob, p *Palette) []byte {
	var buf bytes.Buffer
	if len(jobs) == 0 {
		buf.WriteString(p.Help("No replacement jobs recorded.") + "\n")
		return buf.Bytes()
	}

	for _, j := range jobs {
		status := string(j.Status())
		switch j.Status() {
		case models.JobStatusCompleted:
			status = p.OK(status)
		case models.JobStatusFailed:
			status = p.Err(status)
		default:
			status = p.Warn(status)
		}

		fmt.Fprintf(&buf, "%s  %s  %-9s  %s  +%d -%d",
			j.CreatedAt().Format("2006-01-02 15:04"),
			shortID(j.RunID()),
			status,
			j.PlaylistName(),
			j.Inserted(),
			j.Removed(),
		)
		if msg := j.ErrorMessage(); msg != "" {
			buf.WriteString("  " + p.Help(msg))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// WriteFile writes rendered output to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func replacementText(v models.StolenVariants, opts Options) string {
	if len(v.IDs) > 0 {
		names := make([]string, len(v.IDs))
		for i, id := range v.IDs {
			names[i] = describe(id, opts.Names)
		}
		return strings.Join(names, " | ")
	}
	if len(v.PreReleaseTracks) > 0 {
		t := v.PreReleaseTracks[0]
		text := "not released yet"
		if t.Name != "" {
			text += ": " + t.Name
		}
		if t.ReleaseTime != nil {
			text += " (" + t.ReleaseTime.Format("2006-01-02") + ")"
		}
		return opts.Palette.Warn(text)
	}
	return opts.Palette.Warn("no replacement available")
}

func variantNotes(v models.StolenVariants) []string {
	var notes []string
	if v.IsLive {
		notes = append(notes, "live")
	}
	if v.IsRemixWithoutTV {
		notes = append(notes, "remix")
	}
	if v.IsAcousticWithoutTV {
		notes = append(notes, "acoustic")
	}
	if v.IsDemoWithoutTV {
		notes = append(notes, "demo")
	}
	if v.IsMixWithoutTV {
		notes = append(notes, "mix")
	}
	return notes
}

func describe(id string, names Names) string {
	if names == nil {
		return id
	}
	if t := names.TryGet(id); t != nil && t.Name != "" {
		return fmt.Sprintf("%s (%s)", t.Name, id)
	}
	return id
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
