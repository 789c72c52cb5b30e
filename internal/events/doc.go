// Package events provides a small generic publish/subscribe broker and the
// plugin lifecycle event type carried on it.
package events
