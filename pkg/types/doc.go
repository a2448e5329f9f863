/*
Package types defines the shared domain model for ticketmesh: shows, seat
reservation records, sessions, payment transactions, and the error taxonomy
used across package boundaries.

Keeping these in one dependency-free package lets the state machine, the
coordinator, the RPC layer, and the external service facades agree on the
same shapes without import cycles.
*/
package types
