package widget

// MaxWindfinderPerPage is the number of Windfinder widgets one page may embed
// under Windfinder's usage rules.
const MaxWindfinderPerPage = 3

// WindfinderURL returns the widget source copied from windfinder.com unchanged.
func WindfinderURL(widgetSrc string) string {
	return widgetSrc
}
