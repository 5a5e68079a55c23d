package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/errands/internal/views"
)

func (m Model) renderHelpView() string {
	var plain []string
	for _, group := range m.Keys.FullHelp() {
		for _, b := range group {
			plain = append(plain, bindingLine(b))
		}
	}
	plain = append(plain,
		"palette: add <text> | search <q> | list <name|all> | newlist <name>",
		"         done [id] | repeat [id] <rule> | norepeat [id] | due [id] <date|none> [time]",
	)
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(m.Keys),
	})
}

func bindingLine(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("- %s: %s", h.Key, h.Desc)
}
