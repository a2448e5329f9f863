/*
Package rpc defines the wire contracts for ticketmesh's four gRPC services:
the client-facing booking surface, the auth and payment facades, and the
consensus peer protocol.

Messages are plain Go structs carried by a JSON codec registered under the
"json" content-subtype; service descriptors are written by hand. This keeps
the wire format identical to the JSON command payloads inside the
replicated log and avoids a code generation step.
*/
package rpc
