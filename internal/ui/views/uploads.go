package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"

	"courier/internal/domain"
)

// UploadRenderer handles rendering of queued files
type UploadRenderer struct {
	styles *Styles
	bar    progress.Model
}

// NewUploadRenderer creates a new upload renderer
func NewUploadRenderer(styles *Styles) *UploadRenderer {
	return &UploadRenderer{
		styles: styles,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(20),
		),
	}
}

// RenderItem renders one queue row
func (r *UploadRenderer) RenderItem(item domain.UploadItem, isSelected bool, width int) string {
	statusStyle := r.statusStyle(item.Status)
	icon := statusStyle.Render(r.statusIcon(item.Status))

	name := item.File.Name
	if item.HasPreview() {
		name += " " + r.styles.Dim.Render("[img]")
	}

	meta := r.styles.Dim.Render(fmt.Sprintf("%s  %s",
		humanize.Bytes(uint64(max(item.File.Size, 0))),
		item.File.MediaType))

	var detail string
	switch item.Status {
	case domain.StatusUploading:
		detail = r.bar.ViewAs(float64(item.Progress) / 100)
	case domain.StatusUploaded:
		detail = r.styles.StatusSuccess.Render(item.RemoteURL)
	case domain.StatusFailed:
		detail = r.styles.StatusError.Render(item.Error)
		if item.Attempts > 1 {
			detail += r.styles.Dim.Render(fmt.Sprintf(" (attempt %d)", item.Attempts))
		}
	default:
		detail = r.styles.Dim.Render("added " + humanize.Time(item.AddedAt))
	}

	line := fmt.Sprintf("%s %s  %s  %s", icon, name, meta, detail)
	return selectLine(r.styles, line, isSelected, width)
}

// RenderRejected lists files that were refused by the latest selection
func (r *UploadRenderer) RenderRejected(rejected map[string]string, dropped int) string {
	if len(rejected) == 0 && dropped == 0 {
		return ""
	}
	names := make([]string, 0, len(rejected))
	for name := range rejected {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		lines = append(lines, r.styles.StatusError.Render(fmt.Sprintf("✗ %s: %s", name, rejected[name])))
	}
	if dropped > 0 {
		lines = append(lines, r.styles.StatusWarning.Render(fmt.Sprintf("! %d file(s) over the queue limit were dropped", dropped)))
	}
	return strings.Join(lines, "\n")
}

// RenderSummary renders the per-status counts shown above the queue
func (r *UploadRenderer) RenderSummary(items []domain.UploadItem, maxCount int) string {
	counts := make(map[domain.UploadStatus]int)
	var total int64
	for _, item := range items {
		counts[item.Status]++
		total += item.File.Size
	}
	parts := []string{fmt.Sprintf("%d/%d files, %s", len(items), maxCount, humanize.Bytes(uint64(max(total, 0))))}
	for _, status := range []domain.UploadStatus{domain.StatusPending, domain.StatusUploading, domain.StatusUploaded, domain.StatusFailed} {
		if n := counts[status]; n > 0 {
			parts = append(parts, r.statusStyle(status).Render(fmt.Sprintf("%d %s", n, status)))
		}
	}
	return strings.Join(parts, r.styles.Dim.Render(" · "))
}

func (r *UploadRenderer) statusIcon(status domain.UploadStatus) string {
	switch status {
	case domain.StatusUploading:
		return "↑"
	case domain.StatusUploaded:
		return "✓"
	case domain.StatusFailed:
		return "✗"
	default:
		return "•"
	}
}

func (r *UploadRenderer) statusStyle(status domain.UploadStatus) lipgloss.Style {
	switch status {
	case domain.StatusUploading:
		return r.styles.StatusActive
	case domain.StatusUploaded:
		return r.styles.StatusSuccess
	case domain.StatusFailed:
		return r.styles.StatusError
	default:
		return r.styles.StatusLoading
	}
}

// selectLine prefixes the cursor marker and clips the row to width
func selectLine(styles *Styles, line string, isSelected bool, width int) string {
	if width <= 0 {
		width = 80
	}
	prefix := "  "
	if isSelected {
		prefix = styles.Highlight.Render("> ")
	}
	return lipgloss.NewStyle().MaxWidth(width - 4).Render(prefix + line)
}
