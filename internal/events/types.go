package events

import "time"

// PluginEventType names a plugin lifecycle transition.
type PluginEventType string

const (
	PluginInstalled   PluginEventType = "installed"
	PluginStarted     PluginEventType = "started"
	PluginStopped     PluginEventType = "stopped"
	PluginUninstalled PluginEventType = "uninstalled"
	PluginError       PluginEventType = "error"
)

// PluginEvent is emitted on every plugin lifecycle transition. Every field is
// copied from the plugin manifest at the time of the transition, so a
// subscriber can rebuild plugin state from the manifest list plus the stream.
type PluginEvent struct {
	Type      PluginEventType `json:"type"`
	PluginID  string          `json:"pluginId"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Tools     []string        `json:"tools,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// PluginBroker is the broker type used for plugin lifecycle events.
type PluginBroker = Broker[PluginEvent]
