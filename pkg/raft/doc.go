/*
Package raft implements the leader-based consensus protocol replicating the
seat-reservation state machine across booking nodes.

Each node is a follower, candidate, or leader. Followers that miss
heartbeats for a randomized election window (150-300ms) stand for election;
the leader replicates log entries with append-entries on a 50ms heartbeat
tick and advances the commit index once a majority of match indices cover an
entry from its own term. A background loop applies committed entries to the
state machine in strict index order and resolves proposal waiters only after
apply, so a successful Propose caller can immediately read its effect.

Term, vote, and the log itself are persisted in a single BoltDB file and
recovered on restart. All consensus state is serialized behind one mutex per
node; outbound peer RPCs run concurrently and fold their results back in
under the same lock.
*/
package raft
