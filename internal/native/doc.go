// Package native provides the capabilities toolhub ships with. They run in
// process and need no plugin.
package native
