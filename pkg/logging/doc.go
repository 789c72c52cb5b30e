// Package logging provides the structured logging facade used across toolhub.
//
// It wraps Go's log/slog with a subsystem-oriented API so call sites read the
// same everywhere:
//
//	logging.Info("Registry", "Registered %d capabilities", n)
//	logging.Warn("Plugin", "Provider %s reported no tools", id)
//	logging.Error("Protocol", err, "Failed to write response")
//
// # Initialization
//
// Call Init (or InitForCLI) once at startup. Output is either slog's text
// handler or its JSON handler:
//
//	logging.Init(logging.LevelDebug, logging.FormatJSON, os.Stderr)
//
// Before Init is called, messages go through slog.Default().
//
// # Audit Logging
//
// Plugin lifecycle actions (install, start, stop, uninstall) are recorded as
// audit events:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "plugin_install",
//	    Outcome: "success",
//	    Target:  "brave-search",
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix.
//
// # Thread Safety
//
// All functions are safe for concurrent use. Re-initialization swaps the
// logger atomically.
package logging
