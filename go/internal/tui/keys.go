package tui

import "github.com/charmbracelet/bubbles/key"

type listingKeys struct {
	Quit      key.Binding
	NextField key.Binding
	PrevField key.Binding
	Stage     key.Binding
	Up        key.Binding
	Down      key.Binding
	Remove    key.Binding
	Submit    key.Binding
}

var defaultListingKeys = listingKeys{
	Quit:      key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	Stage:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add image")),
	Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "select image")),
	Down:      key.NewBinding(key.WithKeys("down")),
	Remove:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "remove image")),
	Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "create listing")),
}

type bidKeys struct {
	Quit key.Binding
	Bid  key.Binding
}

var defaultBidKeys = bidKeys{
	Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	Bid:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "place bid")),
}

func helpLine(bindings ...key.Binding) string {
	var out string
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if out != "" {
			out += "  "
		}
		out += h.Key + ": " + h.Desc
	}
	return helpStyle.Render(out)
}
