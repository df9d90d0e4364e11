// package formatter renders tracks and search results for the CLI (text table, CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/mimo/internal/models"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat converts a flag value into a [Format]. An empty value is [FormatText].
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected one of text, json, csv, markdown)", v)
	}
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past the hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var csvHeaders = []string{"ID", "Title", "Artist", "Duration", "Source", "AudioURL", "ShareURL"}

// TracksToCSV converts tracks to CSV with columns: ID, Title, Artist, Duration, Source, AudioURL, ShareURL
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			strconv.Itoa(track.DurationSeconds),
			track.Source.String(),
			track.AudioURL,
			deref(track.ShareURL),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown converts tracks to a numbered Markdown list under a heading.
func TracksToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, track := range tracks {
		name := track.Title
		if link := deref(track.ShareURL); link != "" {
			name = fmt.Sprintf("[%s](%s)", track.Title, link)
		}
		fmt.Fprintf(&buf, "%d. %s - %s [%s] (%s)\n", i+1, track.Artist, name, FormatDuration(track.DurationSeconds), track.Source)
	}

	return buf.Bytes()
}

// TracksToText renders tracks as a bordered table.
func TracksToText(tracks []models.Track) []byte {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Title", "Artist", "Duration", "Source")

	for i, track := range tracks {
		t.Row(strconv.Itoa(i+1), track.Title, track.Artist, FormatDuration(track.DurationSeconds), track.Source.String())
	}

	return []byte(t.String() + "\n")
}

// TracksToJSON encodes tracks as an indented JSON array. A nil slice encodes as [].
func TracksToJSON(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	return marshal(tracks)
}

// WriteTracks writes tracks to w in format, using title for formats that carry a heading.
func WriteTracks(w io.Writer, format Format, title string, tracks []models.Track) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatJSON:
		data, err = TracksToJSON(tracks)
	case FormatCSV:
		data, err = TracksToCSV(tracks)
	case FormatMarkdown:
		data = TracksToMarkdown(title, tracks)
	case FormatText, "":
		if title != "" {
			data = []byte(title + "\n")
		}
		data = append(data, TracksToText(tracks)...)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteSearchResult writes per-source results to w.
//
// JSON keeps the licensed/community object shape. CSV is a single table since every row carries its source.
// Text and Markdown print one section per source.
func WriteSearchResult(w io.Writer, format Format, query string, result models.SearchResult) error {
	switch format {
	case FormatJSON:
		data, err := marshal(result)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	case FormatCSV:
		var all []models.Track
		for _, source := range models.Sources {
			all = append(all, result.For(source)...)
		}
		return WriteTracks(w, FormatCSV, "", all)
	}

	for i, source := range models.Sources {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		title := fmt.Sprintf("%s results for %q", source, query)
		if err := WriteTracks(w, format, title, result.For(source)); err != nil {
			return err
		}
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
