/*
Package events provides an in-memory event broker for ticketmesh's pub/sub
messaging.

The coordinator and the consensus node publish booking and leadership events
(seat.reserved, show.added, raft.leader_elected, ...) to the broker;
subscribers such as the metrics collector consume them over buffered
channels. Publish never blocks the hot path: a subscriber whose buffer is
full simply misses the event.
*/
package events
