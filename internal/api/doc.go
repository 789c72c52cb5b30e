// Package api defines the error taxonomy shared by every toolhub component.
//
// Components return *Error values tagged with a Code. The execution adapter
// turns them into failure envelopes, the protocol server maps them to
// JSON-RPC error codes, and the CLI prints their message.
package api
