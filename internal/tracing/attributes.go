package tracing

// Span names.
const (
	SpanInvoke      = "capability.invoke"
	SpanPluginStart = "plugin.start"
	SpanRPC         = "rpc.dispatch"
)

// Span attribute keys.
const (
	AttrCapabilityType = "capability.type"
	AttrRuntime        = "capability.runtime"
	AttrPluginOwner    = "capability.plugin_owner"
	AttrInvocationID   = "invocation.id"
	AttrSuccess        = "invocation.success"
	AttrErrorCode      = "error.code"
	AttrPluginID       = "plugin.id"
	AttrToolCount      = "plugin.tool_count"
	AttrRPCMethod      = "rpc.method"
)
