package views

import (
	"fmt"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"courier/internal/domain"
)

// ResultDetail renders the full record as plain text for the pager
func ResultDetail(res domain.Result) string {
	var b strings.Builder
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-12s %s\n", name+":", value)
		}
	}

	fmt.Fprintf(&b, "%s\n%s\n\n", domain.ResultTitle(res), strings.Repeat("=", len([]rune(domain.ResultTitle(res)))))
	field("Type", string(res.Kind()))
	field("ID", res.ResultID())

	switch v := res.(type) {
	case domain.PostResult:
		field("Community", v.Community)
		field("Author", "@"+v.Author)
		if !v.CreatedAt.IsZero() {
			field("Posted", fmt.Sprintf("%s (%s)", v.CreatedAt.Format(time.RFC1123), humanize.Time(v.CreatedAt)))
		}
		field("Likes", humanize.Comma(int64(v.Likes)))
		field("Comments", humanize.Comma(int64(v.Comments)))
		if v.Snippet != "" {
			fmt.Fprintf(&b, "\n%s\n", v.Snippet)
		}
	case domain.UserResult:
		field("Verified", fmt.Sprintf("%t", v.Verified))
		field("Karma", humanize.Comma(int64(v.Karma)))
		field("Followers", humanize.Comma(int64(v.Followers)))
		field("Posts", humanize.Comma(int64(v.Posts)))
		field("Avatar", v.Avatar)
		if v.Bio != "" {
			fmt.Fprintf(&b, "\n%s\n", v.Bio)
		}
	case domain.CommunityResult:
		field("Members", humanize.Comma(int64(v.Members)))
		field("Posts", humanize.Comma(int64(v.Posts)))
		field("Growth", fmt.Sprintf("%+.1f%%", v.Growth))
		if v.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", v.Description)
		}
	}
	return b.String()
}
