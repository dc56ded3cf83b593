// Package log provides named, leveled loggers on top of the standard library
// logger.
//
// Each component asks for its own logger once and keeps it:
//
//	l := log.ForService("algolia")
//	l.Infof("fetching %q page %d", term, page)
//	l.Debugf("request url: %s", u) // only with --debug or EnableDebugFor("algolia")
//
// Lines look like:
//
//	2026/10/19 10:00:00.000000 INFO [algolia] fetching "redux" page 0
//
// Debug output can be enabled globally (SetGlobalDebug) or per service
// (EnableDebugFor, EnableDebugList). SetQuiet silences Info and Debug, which
// the terminal UI needs while it owns the screen.
//
// Tests can capture output with SetOutput(&bytes.Buffer{}).
//
// The package name collides with the standard library. Alias one of them when
// both are needed.
package log
