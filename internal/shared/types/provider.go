package types

// Provider is a registered document-type provider.
type Provider interface {
	Type() string
}

// HelpMenuProvider is implemented by providers contributing help menu entries.
type HelpMenuProvider interface {
	HelpMenu() []MenuEntry
}

// NewFileMenuProvider is implemented by providers contributing new file menu entries.
type NewFileMenuProvider interface {
	NewFileMenu() []MenuEntry
}

// MenuOptionsFor collects the menu contributions a provider supports.
func MenuOptionsFor(p Provider) MenuOptions {
	var opts MenuOptions
	if help, ok := p.(HelpMenuProvider); ok {
		opts.HelpMenu = help.HelpMenu()
	}
	if newFile, ok := p.(NewFileMenuProvider); ok {
		opts.NewFileMenu = newFile.NewFileMenu()
	}
	return opts
}
