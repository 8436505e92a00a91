package modes

import (
	"github.com/charmbracelet/bubbles/textinput"

	"courier/internal/ui/input/types"
)

// FilterMode reads a key=value filter expression; submitting it applies
// the filter and re-runs the search
type FilterMode struct {
	TextInputMode
}

func NewFilterMode(ti *textinput.Model) *FilterMode {
	return &FilterMode{
		TextInputMode: NewTextInputMode(types.ModeFilter, "filter", "type=posts, community=golang, sort=top ...", ti),
	}
}
