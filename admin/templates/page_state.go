package templates

// Flash is the one-shot message pair shown at the top of a page.
type Flash struct {
	Success string
	Error   string
}

func (f Flash) Empty() bool {
	return f.Success == "" && f.Error == ""
}

// PageState is embedded by every page view. Message is the page heading and
// title.
type PageState struct {
	Message string
	Flash   Flash
}
