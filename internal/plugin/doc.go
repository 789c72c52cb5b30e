// Package plugin installs external tool providers and drives their
// lifecycle: install, start (connect, discover, register), stop (unregister,
// disconnect), restart and uninstall.
//
// The Manager owns every plugin manifest. It is the only caller of
// capability.Registry.UnregisterByOwner, and it always retracts a plugin's
// capabilities before closing the plugin's connection. A failed or cancelled
// start leaves the plugin in the error state with nothing registered; the
// plugin stays installed so the start can be retried.
package plugin
