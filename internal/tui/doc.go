// Package tui is the interactive page of one capability, built on Bubble Tea.
//
// The page follows the capability's lifecycle state through a manager
// subscription. While the capability is downloadable it offers the download
// and shows its progress; once available it takes input and shows the answer,
// either in one piece or streamed as it is generated. A running request can be
// cancelled with esc, which keeps the partial output. Logs are shown in a short
// activity area when logging is routed to the TUI.
//
// # Keys
//
//	enter    run the request
//	esc      cancel the running request
//	d        download (when downloadable)
//	ctrl+s   toggle streaming
//	ctrl+r   re-check availability
//	ctrl+y   copy the output
//	pgup/dn  scroll the output
//	ctrl+c   quit
package tui
