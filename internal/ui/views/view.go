package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"courier/internal/domain"
	"courier/internal/search"
	"courier/internal/ui/state"
)

// PaletteLine is one row of the command palette
type PaletteLine struct {
	Name        string
	Description string
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	ActiveTab   state.Tab
	Uploads     []domain.UploadItem
	UploadIndex int
	MaxFiles    int
	Rejected    map[string]string
	Dropped     int

	Search              search.State
	ResultIndex         int
	SuggestionHighlight int

	ViewportOffset int
	ViewportHeight int
	StatusMessage  string
	StatusIsError  bool
	Busy           bool
	Spinner        string

	InputMode    string // empty in normal mode
	TextInput    string
	ConfirmClear bool
	PaletteOpen  bool
	Palette      []PaletteLine
	PaletteIndex int

	ShowPopup    bool
	PopupTitle   string
	PopupContent string

	HelpModel help.Model
	Keys      KeyMap
}

// Renderer handles all view rendering
type Renderer struct {
	styles       *Styles
	uploadRender *UploadRenderer
	resultRender *ResultRenderer
	popupRender  *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:       styles,
		uploadRender: NewUploadRenderer(styles),
		resultRender: NewResultRenderer(styles),
		popupRender:  NewPopupRenderer(styles),
	}
}

// Render produces the complete view
func (r *Renderer) Render(vs ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderTitleLine(vs))
	content.WriteString("\n\n")

	if input := r.renderInput(vs); input != "" {
		content.WriteString(input)
		content.WriteString("\n\n")
	}

	switch vs.ActiveTab {
	case state.TabSearch:
		content.WriteString(r.renderSearch(vs))
	default:
		content.WriteString(r.renderUploads(vs))
	}

	// Push the status and help lines to the bottom
	footer := r.renderFooter(vs)
	currentLines := strings.Count(content.String(), "\n") + 1
	availableLines := vs.Height - 2
	if availableLines <= 0 {
		availableLines = 22
	}
	if padding := availableLines - currentLines - lipgloss.Height(footer); padding > 0 {
		content.WriteString(strings.Repeat("\n", padding))
	}
	content.WriteString("\n")
	content.WriteString(footer)

	mainStyle := r.styles.Main
	if vs.Height > 0 {
		mainStyle = mainStyle.MaxHeight(vs.Height)
	}
	finalContent := mainStyle.Render(content.String())

	if vs.PaletteOpen {
		return r.popupRender.RenderPopupOverlay(finalContent, r.renderPalette(vs), vs.Height, vs.Width, r.styles.PaletteBox)
	}
	if vs.ShowPopup {
		body := r.styles.Title.Render(vs.PopupTitle) + "\n\n" + vs.PopupContent
		return r.popupRender.RenderPopupOverlay(finalContent, body, vs.Height, vs.Width, r.styles.InfoBox)
	}
	return finalContent
}

func (r *Renderer) renderTitleLine(vs ViewState) string {
	var tabs []string
	for i, tab := range []state.Tab{state.TabUploads, state.TabSearch} {
		label := fmt.Sprintf("%d %s", i+1, tab)
		if tab == vs.ActiveTab {
			tabs = append(tabs, r.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, r.styles.Tab.Render(label))
		}
	}
	left := r.styles.Title.Render("courier") + "  " + strings.Join(tabs, " ")

	var indicators []string
	if vs.Busy {
		indicators = append(indicators, vs.Spinner+" "+r.busyText(vs))
	}
	right := r.styles.Dim.Render(strings.Join(indicators, " | "))
	if filters := r.resultRender.RenderFilters(vs.Search.Filters); filters != "" {
		right = strings.TrimSpace(right + "  " + filters)
	}
	if right == "" {
		return left
	}

	termWidth := vs.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	padding := termWidth - 4 - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 2 {
		padding = 2
	}
	return left + strings.Repeat(" ", padding) + right
}

func (r *Renderer) busyText(vs ViewState) string {
	uploading := 0
	for _, item := range vs.Uploads {
		if item.Status == domain.StatusUploading {
			uploading++
		}
	}
	var parts []string
	if uploading > 0 {
		parts = append(parts, fmt.Sprintf("↑ Uploading %d", uploading))
	}
	if vs.Search.Loading {
		parts = append(parts, "Searching")
	}
	if len(parts) == 0 {
		return "Working"
	}
	return strings.Join(parts, ", ")
}

func (r *Renderer) renderInput(vs ViewState) string {
	if vs.ConfirmClear {
		return r.styles.Confirm.Render(fmt.Sprintf("Remove all %d file(s) from the queue? (y/n): ", len(vs.Uploads)))
	}
	if vs.InputMode == "" || vs.PaletteOpen {
		return ""
	}
	line := r.styles.Prompt.Render(vs.InputMode+": ") + vs.TextInput
	if vs.InputMode == "search" {
		if suggestions := r.resultRender.RenderSuggestions(vs.Search, vs.SuggestionHighlight); suggestions != "" {
			line += "\n" + suggestions
		}
	}
	return line
}

func (r *Renderer) renderUploads(vs ViewState) string {
	var sections []string
	sections = append(sections, r.styles.Status.Render(r.uploadRender.RenderSummary(vs.Uploads, vs.MaxFiles)))
	if rejected := r.uploadRender.RenderRejected(vs.Rejected, vs.Dropped); rejected != "" {
		sections = append(sections, rejected)
	}

	if len(vs.Uploads) == 0 {
		sections = append(sections, r.styles.Dim.Render("Queue is empty. Press a to add files."))
		return strings.Join(sections, "\n\n")
	}

	rows := make([]string, 0, len(vs.Uploads))
	for i, item := range vs.Uploads {
		rows = append(rows, r.uploadRender.RenderItem(item, i == vs.UploadIndex, vs.Width))
	}
	sections = append(sections, r.renderWindow(rows, vs.ViewportOffset, vs.ViewportHeight))
	return strings.Join(sections, "\n\n")
}

func (r *Renderer) renderSearch(vs ViewState) string {
	st := vs.Search
	var sections []string

	if st.Query != "" {
		sections = append(sections, r.styles.Status.Render(fmt.Sprintf("Query: %s", st.Query)))
	}

	switch {
	case st.Err != nil && len(st.Results) == 0:
		sections = append(sections, r.styles.StatusError.Render(fmt.Sprintf("Search failed: %v", st.Err)))
	case !st.Searched && !st.Loading:
		sections = append(sections, r.resultRender.RenderRecent(st.Recent))
	case st.Searched && len(st.Results) == 0 && !st.Loading:
		sections = append(sections, r.styles.Dim.Render("No results."))
	default:
		if stats := r.resultRender.RenderStats(st); stats != "" {
			sections = append(sections, stats)
		}
		rows := make([]string, 0, len(st.Results))
		for i, res := range st.Results {
			rows = append(rows, r.resultRender.RenderResult(res, i == vs.ResultIndex, vs.Width))
		}
		list := r.renderWindow(rows, vs.ViewportOffset, vs.ViewportHeight)
		switch {
		case st.Loading:
			list += "\n" + r.styles.StatusLoading.Render(vs.Spinner+" loading...")
		case st.Err != nil:
			list += "\n" + r.styles.StatusError.Render(fmt.Sprintf("Loading more failed: %v", st.Err))
		case st.HasMore:
			list += "\n" + r.styles.Dim.Render("Press m to load more")
		}
		sections = append(sections, list)
	}
	return strings.Join(sections, "\n\n")
}

// renderWindow shows the rows inside the viewport with scroll indicators
func (r *Renderer) renderWindow(rows []string, offset, height int) string {
	if height <= 0 {
		height = len(rows)
	}
	offset = min(max(offset, 0), max(len(rows)-1, 0))

	var lines []string
	if offset > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more above ↑", offset)))
	}
	end := min(offset+height, len(rows))
	lines = append(lines, rows[offset:end]...)
	if below := len(rows) - end; below > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more below ↓", below)))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderFooter(vs ViewState) string {
	var status string
	switch {
	case vs.StatusMessage == "":
	case vs.StatusIsError:
		status = r.styles.StatusError.Render(vs.StatusMessage)
	default:
		status = r.styles.Status.Render(vs.StatusMessage)
	}
	helpLine := vs.HelpModel.View(vs.Keys.ForTab(vs.ActiveTab == state.TabSearch))
	if status == "" {
		return helpLine
	}
	return status + "\n" + helpLine
}

func (r *Renderer) renderPalette(vs ViewState) string {
	lines := []string{r.styles.Prompt.Render("> ") + vs.TextInput, ""}
	if len(vs.Palette) == 0 {
		lines = append(lines, r.styles.Dim.Render("no matching commands"))
	}
	for i, entry := range vs.Palette {
		name := fmt.Sprintf("%-18s", entry.Name)
		if i == vs.PaletteIndex {
			lines = append(lines, r.styles.Highlight.Render("› "+name)+r.styles.Desc.Render(entry.Description))
			continue
		}
		lines = append(lines, "  "+name+r.styles.Dim.Render(entry.Description))
	}
	return strings.Join(lines, "\n")
}

// RenderHelpContent renders the full key reference shown in the pager
func (r *Renderer) RenderHelpContent() string {
	var b strings.Builder
	section := func(title string, rows [][2]string) {
		b.WriteString(r.styles.Section.Render(title))
		b.WriteString("\n")
		for _, row := range rows {
			fmt.Fprintf(&b, "  %s  %s\n", r.styles.Key.Render(fmt.Sprintf("%-12s", row[0])), r.styles.Desc.Render(row[1]))
		}
		b.WriteString("\n")
	}

	b.WriteString(r.styles.Title.Render("Courier Help"))
	b.WriteString("\n\n")
	section("Navigation", [][2]string{
		{"↑/↓, j/k", "Move up/down"},
		{"PgUp/PgDn", "Page up/down"},
		{"gg/G", "Go to top/bottom"},
		{"tab, 1, 2", "Switch between Uploads and Search"},
	})
	section("Uploads", [][2]string{
		{"a", "Add files (space separated paths)"},
		{"u, enter", "Upload the file under the cursor"},
		{"U", "Upload all pending and failed files"},
		{"x, d", "Remove the file under the cursor"},
		{"C", "Clear the queue"},
	})
	section("Search", [][2]string{
		{"/, s", "Edit the query"},
		{"↑/↓ in query", "Highlight a suggestion"},
		{"tab in query", "Accept the highlighted suggestion"},
		{"f", "Set a filter, e.g. type=posts or sort=top"},
		{"F", "Clear all filters"},
		{"r", "Run the search again"},
		{"m, n", "Load the next page"},
		{"enter, o", "Open the result under the cursor"},
	})
	section("Filters", [][2]string{
		{"type", "all, posts, users, communities"},
		{"date_range", "all, day, week, month, year"},
		{"sort", "relevance, newest, top, comments"},
		{"community", "community name"},
		{"author", "author username"},
		{"has_media", "true or false"},
		{"min_score", "minimum likes"},
		{"verified", "true or false"},
	})
	section("Other", [][2]string{
		{":, ctrl+p", "Command palette"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	})
	return b.String()
}
