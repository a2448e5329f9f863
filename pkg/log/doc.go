/*
Package log provides structured logging for ticketmesh built on zerolog.

All components log through the package-level Logger, initialized once at
process startup via Init. Child loggers carry stable fields (component,
node_id, show_id, booking_id) so a single booking can be traced across the
coordinator, the consensus node, and the external service facades.
*/
package log
