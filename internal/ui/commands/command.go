package commands

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"courier/internal/domain"
	"courier/internal/search"
	"courier/internal/ui/state"
	"courier/internal/upload"
)

// Command represents an executable action
type Command interface {
	Execute() tea.Cmd
}

// ResultMsg reports the outcome of a command that ran off the UI loop
type ResultMsg struct {
	Text string
	Err  error
}

// SelectionMsg reports a committed file selection
type SelectionMsg struct {
	Accepted int
	Rejected map[string]string
	Dropped  int
}

// CommandContext provides context for command execution
type CommandContext struct {
	Ctx       context.Context
	State     *state.AppState
	Queue     *upload.Queue
	Session   *search.Session
	OpenFiles func(paths []string) ([]domain.FileHandle, map[string]string)
	Purge     func()
}

// SelectFilesCommand opens and stages a whitespace-separated list of paths
type SelectFilesCommand struct {
	ctx   *CommandContext
	paths []string
}

func NewSelectFilesCommand(ctx *CommandContext, input string) *SelectFilesCommand {
	return &SelectFilesCommand{ctx: ctx, paths: strings.Fields(input)}
}

func (c *SelectFilesCommand) Execute() tea.Cmd {
	if len(c.paths) == 0 {
		return nil
	}
	c.ctx.State.SetStatus(fmt.Sprintf("Adding %s...", plural(len(c.paths), "file")))
	ctx, open, queue := c.ctx.Ctx, c.ctx.OpenFiles, c.ctx.Queue
	paths := c.paths
	return func() tea.Msg {
		files, rejected := open(paths)
		sel := queue.SelectFiles(ctx, files)
		for name, reason := range sel.Rejected {
			rejected[name] = reason
		}
		return SelectionMsg{Accepted: len(sel.Accepted), Rejected: rejected, Dropped: sel.Dropped}
	}
}

// UploadItemCommand uploads a single queued item
type UploadItemCommand struct {
	ctx *CommandContext
	id  string
}

func NewUploadItemCommand(ctx *CommandContext, id string) *UploadItemCommand {
	return &UploadItemCommand{ctx: ctx, id: id}
}

func (c *UploadItemCommand) Execute() tea.Cmd {
	item, ok := c.ctx.Queue.Get(c.id)
	if !ok {
		return nil
	}
	if !item.Retryable() {
		c.ctx.State.SetStatus(fmt.Sprintf("%s is already %s", item.File.Name, item.Status))
		return nil
	}
	ctx, queue, id, name := c.ctx.Ctx, c.ctx.Queue, c.id, item.File.Name
	return func() tea.Msg {
		done, err := queue.UploadOne(ctx, id)
		switch {
		case err != nil:
			return ResultMsg{Err: fmt.Errorf("upload of %s failed: %w", name, err)}
		case done.Status == domain.StatusFailed:
			return ResultMsg{Err: fmt.Errorf("upload of %s failed: %s", name, done.Error)}
		}
		return ResultMsg{Text: fmt.Sprintf("Uploaded %s", name)}
	}
}

// UploadAllCommand uploads every pending or failed item
type UploadAllCommand struct {
	ctx *CommandContext
}

func NewUploadAllCommand(ctx *CommandContext) *UploadAllCommand {
	return &UploadAllCommand{ctx: ctx}
}

func (c *UploadAllCommand) Execute() tea.Cmd {
	counts := c.ctx.Queue.Counts()
	waiting := counts[domain.StatusPending] + counts[domain.StatusFailed]
	if waiting == 0 {
		c.ctx.State.SetStatus("Nothing to upload")
		return nil
	}
	c.ctx.State.SetStatus(fmt.Sprintf("Uploading %s...", plural(waiting, "file")))
	ctx, queue := c.ctx.Ctx, c.ctx.Queue
	return func() tea.Msg {
		n := queue.UploadAll(ctx)
		failed := queue.Counts()[domain.StatusFailed]
		if failed > 0 {
			return ResultMsg{Err: fmt.Errorf("uploaded %s, %d failed", plural(max(n-failed, 0), "file"), failed)}
		}
		return ResultMsg{Text: fmt.Sprintf("Uploaded %s", plural(n, "file"))}
	}
}

// RemoveItemCommand drops an item from the queue
type RemoveItemCommand struct {
	ctx *CommandContext
	id  string
}

func NewRemoveItemCommand(ctx *CommandContext, id string) *RemoveItemCommand {
	return &RemoveItemCommand{ctx: ctx, id: id}
}

func (c *RemoveItemCommand) Execute() tea.Cmd {
	item, ok := c.ctx.Queue.Get(c.id)
	if !ok {
		return nil
	}
	if !c.ctx.Queue.Remove(c.id) {
		return nil
	}
	c.ctx.State.SetUploads(c.ctx.Queue.Items())
	c.ctx.State.SetStatus(fmt.Sprintf("Removed %s", item.File.Name))
	return nil
}

// ClearQueueCommand empties the queue
type ClearQueueCommand struct {
	ctx *CommandContext
}

func NewClearQueueCommand(ctx *CommandContext) *ClearQueueCommand {
	return &ClearQueueCommand{ctx: ctx}
}

func (c *ClearQueueCommand) Execute() tea.Cmd {
	n := c.ctx.Queue.Clear()
	c.ctx.State.SetUploads(c.ctx.Queue.Items())
	c.ctx.State.SetRejected(nil, 0)
	c.ctx.State.SetStatus(fmt.Sprintf("Cleared %s", plural(n, "item")))
	return nil
}

// SetQueryCommand feeds the query text to the session, which debounces
// suggestion lookups on its own
type SetQueryCommand struct {
	ctx  *CommandContext
	text string
}

func NewSetQueryCommand(ctx *CommandContext, text string) *SetQueryCommand {
	return &SetQueryCommand{ctx: ctx, text: text}
}

func (c *SetQueryCommand) Execute() tea.Cmd {
	c.ctx.Session.SetQuery(c.text)
	c.ctx.State.SetSearch(c.ctx.Session.Snapshot())
	return nil
}

// SearchCommand runs a full search; reset starts over at page one
type SearchCommand struct {
	ctx   *CommandContext
	reset bool
}

func NewSearchCommand(ctx *CommandContext, reset bool) *SearchCommand {
	return &SearchCommand{ctx: ctx, reset: reset}
}

func (c *SearchCommand) Execute() tea.Cmd {
	ctx, session, reset := c.ctx.Ctx, c.ctx.Session, c.reset
	return func() tea.Msg {
		session.Search(ctx, reset)
		return searchDone(session.Snapshot())
	}
}

// LoadMoreCommand fetches the next page of results
type LoadMoreCommand struct {
	ctx *CommandContext
}

func NewLoadMoreCommand(ctx *CommandContext) *LoadMoreCommand {
	return &LoadMoreCommand{ctx: ctx}
}

func (c *LoadMoreCommand) Execute() tea.Cmd {
	snap := c.ctx.Session.Snapshot()
	if !snap.HasMore || snap.Loading {
		return nil
	}
	c.ctx.State.SetStatus(fmt.Sprintf("Loading page %d...", snap.Page+1))
	ctx, session := c.ctx.Ctx, c.ctx.Session
	return func() tea.Msg {
		if !session.LoadMore(ctx) {
			return ResultMsg{}
		}
		return searchDone(session.Snapshot())
	}
}

// SetFilterCommand parses a key=value expression, applies it and re-runs
// the search from page one
type SetFilterCommand struct {
	ctx  *CommandContext
	expr string
}

func NewSetFilterCommand(ctx *CommandContext, expr string) *SetFilterCommand {
	return &SetFilterCommand{ctx: ctx, expr: expr}
}

func (c *SetFilterCommand) Execute() tea.Cmd {
	var applied []string
	for _, part := range strings.Split(c.expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, err := domain.ParseFilter(part)
		if err == nil {
			err = c.ctx.Session.SetFilter(key, value)
		}
		if err != nil {
			c.ctx.State.SetError(err.Error())
			return nil
		}
		applied = append(applied, fmt.Sprintf("%s=%s", key, value))
	}
	if len(applied) == 0 {
		return nil
	}
	log.Debugf("Applied filters %v", applied)
	c.ctx.State.SetSearch(c.ctx.Session.Snapshot())
	c.ctx.State.SetStatus("Filter " + strings.Join(applied, ", "))
	return NewSearchCommand(c.ctx, true).Execute()
}

// ClearFiltersCommand restores the default filters and re-runs the search
type ClearFiltersCommand struct {
	ctx *CommandContext
}

func NewClearFiltersCommand(ctx *CommandContext) *ClearFiltersCommand {
	return &ClearFiltersCommand{ctx: ctx}
}

func (c *ClearFiltersCommand) Execute() tea.Cmd {
	c.ctx.Session.ClearFilters()
	c.ctx.State.SetSearch(c.ctx.Session.Snapshot())
	c.ctx.State.SetStatus("Filters cleared")
	return NewSearchCommand(c.ctx, true).Execute()
}

// ClearRecentCommand forgets the recent-query history
type ClearRecentCommand struct {
	ctx *CommandContext
}

func NewClearRecentCommand(ctx *CommandContext) *ClearRecentCommand {
	return &ClearRecentCommand{ctx: ctx}
}

func (c *ClearRecentCommand) Execute() tea.Cmd {
	ctx, session := c.ctx.Ctx, c.ctx.Session
	return func() tea.Msg {
		if err := session.ClearRecent(ctx); err != nil {
			return ResultMsg{Err: fmt.Errorf("failed to clear recent queries: %w", err)}
		}
		return ResultMsg{Text: "Recent queries cleared"}
	}
}

// PurgeSuggestionsCommand drops cached suggestion lookups
type PurgeSuggestionsCommand struct {
	ctx *CommandContext
}

func NewPurgeSuggestionsCommand(ctx *CommandContext) *PurgeSuggestionsCommand {
	return &PurgeSuggestionsCommand{ctx: ctx}
}

func (c *PurgeSuggestionsCommand) Execute() tea.Cmd {
	if c.ctx.Purge != nil {
		c.ctx.Purge()
	}
	c.ctx.State.SetStatus("Suggestion cache purged")
	return nil
}

func searchDone(snap search.State) tea.Msg {
	switch {
	case snap.Err != nil:
		return ResultMsg{Err: fmt.Errorf("search failed: %w", snap.Err)}
	case !snap.Searched:
		return ResultMsg{Text: "Type a query or set a filter to search"}
	default:
		text := fmt.Sprintf("%s of %s results in %s",
			humanize.Comma(int64(len(snap.Results))),
			humanize.Comma(int64(snap.Stats.Total)),
			snap.Stats.Took)
		return ResultMsg{Text: text}
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
