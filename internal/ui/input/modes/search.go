package modes

import (
	"github.com/charmbracelet/bubbles/textinput"

	"postexplorer/internal/ui/input/types"
)

// SearchMode edits the live search query. Leaving it keeps the value.
type SearchMode struct {
	TextInputMode
}

func NewSearchMode(ti *textinput.Model) *SearchMode {
	return &SearchMode{
		TextInputMode: NewTextInputMode(types.ModeSearch, "search", ti),
	}
}

// Enter starts editing from the current query instead of an empty field
func (m *SearchMode) Enter(ctx types.Context) []types.Action {
	actions := m.TextInputMode.Enter(ctx)
	if m.textInput != nil {
		m.textInput.SetValue(ctx.SearchQuery())
		m.textInput.CursorEnd()
	}
	return actions
}
