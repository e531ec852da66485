// Package lifecycle implements the capability lifecycle manager.
//
// A Manager tracks one capability through its availability states:
//
//	unknown ──probe──▶ downloadable ──Download──▶ downloading ──re-probe──▶ available
//	   │                                                          └──────▶ unavailable
//	   └──(not supported)── stays unknown, Error = not-supported message
//
// Status is reported, never enforced: consumers show a download affordance when
// the status is downloadable and input affordances when it is available, and
// call Instantiate only then. The manager leaves that decision to them because
// availability can change between a check and its use.
//
// Only the two anticipated conditions, not supported and unavailable, become
// the Error text. Provider failures are returned to the caller untouched.
//
// State changes are published to subscribers without blocking; a slow
// subscriber loses events rather than stalling the manager.
package lifecycle
