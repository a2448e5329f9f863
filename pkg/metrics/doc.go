/*
Package metrics provides Prometheus metrics and health checking for
ticketmesh nodes.

Each node exposes /metrics and /health on its metrics address. Consensus
gauges (term, commit index, applied index, leadership) are updated by the
raft node; booking counters are fed by the event broker through Collector.
*/
package metrics
