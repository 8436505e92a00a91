package commands

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Executor handles command execution
type Executor struct {
	ctx *CommandContext
}

// NewExecutor creates a new command executor
func NewExecutor(ctx *CommandContext) *Executor {
	return &Executor{ctx: ctx}
}

// ExecuteSelectFiles stages the files named in input
func (e *Executor) ExecuteSelectFiles(input string) tea.Cmd {
	return NewSelectFilesCommand(e.ctx, input).Execute()
}

// ExecuteUploadItem uploads one item
func (e *Executor) ExecuteUploadItem(id string) tea.Cmd {
	return NewUploadItemCommand(e.ctx, id).Execute()
}

// ExecuteUploadAll uploads every pending or failed item
func (e *Executor) ExecuteUploadAll() tea.Cmd {
	return NewUploadAllCommand(e.ctx).Execute()
}

// ExecuteRemoveItem removes one item
func (e *Executor) ExecuteRemoveItem(id string) tea.Cmd {
	return NewRemoveItemCommand(e.ctx, id).Execute()
}

// ExecuteClearQueue empties the queue
func (e *Executor) ExecuteClearQueue() tea.Cmd {
	return NewClearQueueCommand(e.ctx).Execute()
}

// ExecuteSetQuery updates the query text
func (e *Executor) ExecuteSetQuery(text string) tea.Cmd {
	return NewSetQueryCommand(e.ctx, text).Execute()
}

// ExecuteSearch runs a full search
func (e *Executor) ExecuteSearch(reset bool) tea.Cmd {
	return NewSearchCommand(e.ctx, reset).Execute()
}

// ExecuteLoadMore fetches the next page
func (e *Executor) ExecuteLoadMore() tea.Cmd {
	return NewLoadMoreCommand(e.ctx).Execute()
}

// ExecuteSetFilter applies a filter expression
func (e *Executor) ExecuteSetFilter(expr string) tea.Cmd {
	return NewSetFilterCommand(e.ctx, expr).Execute()
}

// ExecuteClearFilters resets the filters
func (e *Executor) ExecuteClearFilters() tea.Cmd {
	return NewClearFiltersCommand(e.ctx).Execute()
}

// ExecuteClearRecent forgets recent queries
func (e *Executor) ExecuteClearRecent() tea.Cmd {
	return NewClearRecentCommand(e.ctx).Execute()
}

// ExecutePurgeSuggestions drops the suggestion cache
func (e *Executor) ExecutePurgeSuggestions() tea.Cmd {
	return NewPurgeSuggestionsCommand(e.ctx).Execute()
}
