package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
	th "github.com/desertthunder/tvx/internal/testing"
)

type names map[string]string

func (n names) TryGet(id string) *models.Track {
	name, ok := n[id]
	if !ok {
		return nil
	}
	return &models.Track{ID: id, Name: name}
}

func testResult() *models.ScanResult {
	release := time.Date(2023, 10, 27, 0, 0, 0, 0, time.UTC)
	return &models.ScanResult{
		Playlists: []models.ScannedPlaylist{
			{
				Playlist: models.Playlist{ID: "p1", Name: "Road | Trip", ExternalURL: "https://open.spotify.com/playlist/p1"},
				StolenTracks: []models.StolenTrack{
					{
						Position: 2,
						Track:    models.Track{ID: "love", Name: "Love Story", ISRC: "USCJY0803275", Album: models.Album{Name: "Fearless"}},
						Variants: models.StolenVariants{IDs: []string{"loveTV"}},
					},
					{
						Position: 5,
						Track:    models.Track{ID: "style", Name: "Style", ISRC: "USCJY1431370", Album: models.Album{Name: "1989"}},
						Variants: models.StolenVariants{
							IDs:              []string{},
							PreReleaseTracks: []models.PreReleaseTrack{{ID: "styleTV", Name: "Style (Taylor's Version)", ReleaseTime: &release}},
						},
					},
					{
						Position: 9,
						Track:    models.Track{ID: "live", Name: "Mine - Live", ISRC: "USCJY1000001"},
						Variants: models.StolenVariants{IDs: []string{"mineTV"}, IsLive: true},
					},
				},
			},
		},
		Errors: []models.ScanError{
			{Playlist: models.Playlist{ID: "p9", Name: "Broken"}, Reason: errors.New("service unavailable")},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: Text},
		{in: "text", want: Text},
		{in: "Markdown", want: Markdown},
		{in: "md", want: Markdown},
		{in: "csv", want: CSV},
		{in: " json ", want: JSON},
		{in: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestScanFormats(t *testing.T) {
	opts := Options{Names: names{"loveTV": "Love Story (Taylor's Version)"}}

	t.Run("Text", func(t *testing.T) {
		output := string(ScanToText(testResult(), opts))

		for _, want := range []string{
			"Road | Trip",
			"#2",
			"Love Story -> Love Story (Taylor's Version) (loveTV)",
			"not released yet: Style (Taylor's Version) (2023-10-27)",
			"[live]",
			"1 playlists, 3 stolen tracks, 1 errors",
			"Broken (p9): service unavailable",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text output missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Text without results", func(t *testing.T) {
		output := string(ScanToText(&models.ScanResult{}, Options{}))
		if !strings.Contains(output, "No stolen tracks found.") {
			t.Errorf("expected empty message, got %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		output := string(ScanToMarkdown(testResult(), opts))

		for _, want := range []string{
			"# Stolen Tracks",
			"**Stolen tracks**: 3",
			"## [Road \\| Trip](https://open.spotify.com/playlist/p1)",
			"| 2 | Love Story | Fearless | Love Story (Taylor's Version) (loveTV) |  |",
			"| 9 | Mine - Live |  | mineTV | live |",
			"## Errors",
			"- **Broken**: Broken: service unavailable",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown output missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := ScanToCSV(testResult(), opts)
		if err != nil {
			t.Fatalf("ScanToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d", len(records))
		}
		if records[0][0] != "playlist_id" || records[0][9] != "notes" {
			t.Errorf("unexpected headers: %v", records[0])
		}
		if records[2][2] != "5" || records[2][7] != "" || records[2][8] != "styleTV" {
			t.Errorf("unexpected pre-release row: %v", records[2])
		}
		if records[3][9] != "live" {
			t.Errorf("expected live note, got %v", records[3])
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Scan(testResult(), JSON, Options{Pretty: true})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}

		var decoded models.ScanResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.StolenCount() != 3 || len(decoded.Errors) != 1 {
			t.Errorf("unexpected decoded result: %+v", decoded)
		}
		if decoded.Errors[0].Reason == nil || decoded.Errors[0].Reason.Error() != "service unavailable" {
			t.Errorf("expected reason to survive, got %v", decoded.Errors[0].Reason)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Scan(testResult(), Format("xml"), opts); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestPlanToText(t *testing.T) {
	plans := []models.PlaylistSelection{
		{
			ID:                "p1",
			Name:              "Road Trip",
			NewTracks:         []models.TrackInsert{{Position: 2, ReplacementID: "loveTV"}, {Position: 9, ReplacementID: "mineTV"}},
			StolenIDsToRemove: []string{"love", "mine"},
		},
	}

	output := string(PlanToText(plans, Options{Names: names{"love": "Love Story"}}))
	for _, want := range []string{"Road Trip", "(2 inserts, 2 tracks removed)", "#2", "+ loveTV", "- Love Story (love)", "1 playlists, 2 replacements"} {
		if !strings.Contains(output, want) {
			t.Errorf("plan output missing %q, got:\n%s", want, output)
		}
	}

	if empty := string(PlanToText(nil, Options{})); !strings.Contains(empty, "Nothing selected") {
		t.Errorf("expected empty plan message, got %s", empty)
	}
}

func TestReplaceErrorsToText(t *testing.T) {
	t.Run("all succeeded", func(t *testing.T) {
		if got := string(ReplaceErrorsToText(nil, 3, nil)); !strings.Contains(got, "Updated 3 playlists.") {
			t.Errorf("unexpected output: %s", got)
		}
	})

	t.Run("some failed", func(t *testing.T) {
		errs := []models.ReplaceError{
			{Playlist: models.PlaylistSelection{ID: "p2", Name: "Broken"}, Reason: errors.New("insert failed")},
		}
		got := string(ReplaceErrorsToText(errs, 3, nil))
		if !strings.Contains(got, "Updated 2 of 3 playlists.") || !strings.Contains(got, "Broken (p2): insert failed") {
			t.Errorf("unexpected output: %s", got)
		}
	})
}

func TestJobsToText(t *testing.T) {
	plan := models.PlaylistSelection{ID: "p1", Name: "Road Trip", NewTracks: []models.TrackInsert{{Position: 1, ReplacementID: "x"}}, StolenIDsToRemove: []string{"y"}}
	jobs := []*models.ReplacementJob{
		models.NewReplacementJob("0123456789abcdef", plan, nil),
		models.NewReplacementJob("0123456789abcdef", plan, errors.New("rate limit exceeded")),
	}

	output := string(JobsToText(jobs, nil))
	for _, want := range []string{"01234567", "completed", "failed", "Road Trip", "+1 -1", "rate limit exceeded"} {
		if !strings.Contains(output, want) {
			t.Errorf("history output missing %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "0123456789abcdef") {
		t.Error("expected shortened run id")
	}

	if got := string(JobsToText(nil, nil)); !strings.Contains(got, "No replacement jobs recorded.") {
		t.Errorf("unexpected empty output: %s", got)
	}
}

func TestPalette(t *testing.T) {
	t.Run("zero value renders unchanged", func(t *testing.T) {
		var p *Palette
		if got := p.Title("x"); got != "x" {
			t.Errorf("expected unchanged text, got %q", got)
		}
		if got := (&Palette{}).Err("y"); got != "y" {
			t.Errorf("expected unchanged text, got %q", got)
		}
	})

	t.Run("styled palette keeps text", func(t *testing.T) {
		if got := Styles.OK("done"); !strings.Contains(got, "done") {
			t.Errorf("expected styled text to contain input, got %q", got)
		}
	})
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := WriteFile(path, ScanToMarkdown(testResult(), Options{})); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	th.AssertFileExists(t, path)
	if !strings.Contains(th.MustReadFile(t, path), "Road") {
		t.Error("expected report content")
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "report.md"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
