package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"

	"courier/internal/domain"
	"courier/internal/search"
)

// ResultRenderer handles rendering of search results
type ResultRenderer struct {
	styles *Styles
}

// NewResultRenderer creates a new result renderer
func NewResultRenderer(styles *Styles) *ResultRenderer {
	return &ResultRenderer{styles: styles}
}

// RenderResult renders one result row according to its kind
func (r *ResultRenderer) RenderResult(res domain.Result, isSelected bool, width int) string {
	kind := lipgloss.NewStyle().Foreground(lipgloss.Color(KindColor(res.Kind()))).Render(fmt.Sprintf("%-9s", res.Kind()))

	var line string
	switch v := res.(type) {
	case domain.PostResult:
		meta := fmt.Sprintf("%s · @%s · %s · ♥ %s · %s comments",
			v.Community, v.Author, humanize.Time(v.CreatedAt),
			humanize.Comma(int64(v.Likes)), humanize.Comma(int64(v.Comments)))
		line = fmt.Sprintf("%s %s  %s", kind, v.Title, r.styles.Dim.Render(meta))
	case domain.UserResult:
		name := "@" + v.Username
		if v.Verified {
			name += " " + r.styles.StatusSuccess.Render("✓")
		}
		meta := fmt.Sprintf("%s karma · %s followers · %s posts",
			humanize.Comma(int64(v.Karma)), humanize.Comma(int64(v.Followers)), humanize.Comma(int64(v.Posts)))
		line = fmt.Sprintf("%s %s  %s", kind, name, r.styles.Dim.Render(meta))
	case domain.CommunityResult:
		meta := fmt.Sprintf("%s members · %s posts · %+.1f%%",
			humanize.Comma(int64(v.Members)), humanize.Comma(int64(v.Posts)), v.Growth)
		line = fmt.Sprintf("%s %s  %s", kind, v.Name, r.styles.Dim.Render(meta))
	default:
		line = fmt.Sprintf("%s %s", kind, domain.ResultTitle(res))
	}
	return selectLine(r.styles, line, isSelected, width)
}

// RenderStats renders the result count, timing and facet breakdown
func (r *ResultRenderer) RenderStats(st search.State) string {
	if !st.Searched {
		return ""
	}
	line := fmt.Sprintf("%s of %s results · page %d · %s",
		humanize.Comma(int64(len(st.Results))),
		humanize.Comma(int64(st.Stats.Total)),
		st.Page, st.Stats.Took)
	if facets := r.renderFacets(st.Stats.Facets); facets != "" {
		line += " · " + facets
	}
	return r.styles.Status.Render(line)
}

func (r *ResultRenderer) renderFacets(facets map[string][]domain.FacetCount) string {
	if len(facets) == 0 {
		return ""
	}
	names := make([]string, 0, len(facets))
	for name := range facets {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		var buckets []string
		for _, b := range facets[name] {
			buckets = append(buckets, fmt.Sprintf("%s %d", b.Value, b.Count))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(buckets, ", ")))
	}
	return strings.Join(parts, "; ")
}

// RenderFilters renders the active filters, empty when all are default
func (r *ResultRenderer) RenderFilters(f domain.Filters) string {
	active := f.Active()
	if len(active) == 0 {
		return ""
	}
	var parts []string
	for _, key := range domain.FilterKeys {
		if v, ok := active[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", key, v))
		}
	}
	return r.styles.Filter.Render(fmt.Sprintf("[Filter: %s]", strings.Join(parts, " ")))
}

// RenderSuggestions renders the suggestion dropdown under the query input
func (r *ResultRenderer) RenderSuggestions(st search.State, highlight int) string {
	if st.SuggestErr != nil && len(st.Suggestions) == 0 {
		return r.styles.StatusError.Render("  suggestions unavailable")
	}
	var lines []string
	for i, s := range st.Suggestions {
		if i == highlight {
			lines = append(lines, r.styles.Highlight.Render("  › "+s))
			continue
		}
		lines = append(lines, r.styles.Dim.Render("    "+s))
	}
	return strings.Join(lines, "\n")
}

// RenderRecent renders the recent-query list shown before the first search
func (r *ResultRenderer) RenderRecent(recent []string) string {
	if len(recent) == 0 {
		return r.styles.Dim.Render("Press / to search posts, users and communities.")
	}
	lines := []string{r.styles.Section.Render("Recent searches")}
	for _, q := range recent {
		lines = append(lines, "  "+q)
	}
	return strings.Join(lines, "\n")
}
