// Package protocol implements the toolhub JSON-RPC 2.0 server.
//
// A Server answers initialize, list-capabilities, call-capability,
// list-resources, read-resource, search-capabilities, list-categories and
// get-request-log against a capability registry. Capabilities whose
// category does not match the allow-list are hidden and cannot be called.
// The same dispatcher is served over HTTP (POST /rpc) and newline-delimited
// JSON on stdio.
package protocol
