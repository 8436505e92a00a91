package modes

import (
	"github.com/charmbracelet/bubbles/textinput"

	"courier/internal/ui/input/types"
)

// AddFilesMode reads one or more file paths to stage in the queue
type AddFilesMode struct {
	TextInputMode
}

func NewAddFilesMode(ti *textinput.Model) *AddFilesMode {
	return &AddFilesMode{
		TextInputMode: NewTextInputMode(types.ModeAddFiles, "add files", "path/to/file.png other.pdf", ti),
	}
}
