// Package capability holds the capability data model, the port type
// compatibility matrix, and the Registry that catalogs every capability known
// to the process.
//
// The Registry is constructed explicitly and passed to the components that
// need it. Plugin-contributed capabilities carry their plugin id in
// PluginOwner, which is the only link back to the plugin manager; the manager
// retracts them in bulk with UnregisterByOwner.
//
// Subscribers are notified after each mutation has been applied and the lock
// released. Every Change carries a Revision so listeners that receive
// notifications from concurrent mutators can order them.
package capability
