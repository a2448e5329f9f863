/*
Package seats implements the deterministic state machine replicated by the
consensus log: the show catalog and per-seat reservation records.

Commands (add_show, reserve, release) are JSON-encoded in log entries.
Apply is a no-op for anything invalid or already satisfied, which makes
duplicate delivery safe and guarantees a seat is reserved at most once per
log history. Reservation timestamps travel inside the command so replicas
never consult the wall clock during apply.

The catalog is snapshotted to BoltDB after every apply together with the
applied index, letting a restarted node resume without replaying the log
from the beginning.
*/
package seats
