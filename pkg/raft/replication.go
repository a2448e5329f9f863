package raft

import (
	"context"
	"sort"
	"time"

	"github.com/ticketmesh/ticketmesh/pkg/metrics"
)

// maxEntriesPerAppend bounds how many entries a single append-entries
// request carries; a lagging follower catches up over successive ticks.
const maxEntriesPerAppend = 64

// heartbeatLoop drives replication: on every tick the leader sends
// append-entries (empty or catch-up) to every peer.
func (n *Node) heartbeatLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n.IsLeader() {
				n.broadcastAppendEntries()
			}
		case <-n.stopCh:
			return
		}
	}
}

// broadcastAppendEntries sends one append-entries round to every peer.
func (n *Node) broadcastAppendEntries() {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return
	}
	peers := append([]string(nil), n.peers...)
	n.mu.Unlock()

	for _, peer := range peers {
		go n.replicateTo(peer)
	}
}

// replicateTo sends entries starting at the peer's next index and folds the
// response back into leader state.
func (n *Node) replicateTo(peer string) {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return
	}
	term := n.term
	next := n.nextIndex[peer]
	if next == 0 {
		next = 1
	}
	prevIndex := next - 1
	prevTerm := uint64(0)
	if prevIndex > 0 {
		t, ok := n.wal.Term(prevIndex)
		if !ok {
			// The peer is ahead of an optimistic next_index guess; back off
			// to the tail of our own log.
			n.nextIndex[peer] = n.wal.LastIndex() + 1
			n.mu.Unlock()
			return
		}
		prevTerm = t
	}
	entries, err := n.wal.Entries(next, maxEntriesPerAppend)
	if err != nil {
		n.mu.Unlock()
		n.logger.Error().Err(err).Str("peer", peer).Msg("failed to read entries for replication")
		return
	}
	req := &AppendRequest{
		Term:         term,
		LeaderID:     n.id,
		PrevLogIndex: prevIndex,
		PrevLogTerm:  prevTerm,
		Entries:      entries,
		LeaderCommit: n.commitIndex,
	}
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.HeartbeatInterval)
	defer cancel()

	resp, err := n.transport.AppendEntries(ctx, peer, req)
	if err != nil {
		// Peer unreachable; no state mutation, retried on the next tick.
		n.logger.Debug().Err(err).Str("peer", peer).Msg("append entries failed")
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if resp.Term > n.term {
		n.stepDownLocked(resp.Term)
		n.resetElectionTimer()
		return
	}
	if n.role != Leader || n.term != term {
		return
	}

	if resp.Success {
		match := req.PrevLogIndex + uint64(len(req.Entries))
		if match > n.matchIndex[peer] {
			n.matchIndex[peer] = match
		}
		n.nextIndex[peer] = n.matchIndex[peer] + 1
		n.advanceCommitLocked()
		return
	}

	// Log inconsistency: back up next_index, using the follower's hint when
	// it is lower than a plain decrement.
	backoff := n.nextIndex[peer] - 1
	if resp.MatchIndex+1 < backoff {
		backoff = resp.MatchIndex + 1
	}
	if backoff < 1 {
		backoff = 1
	}
	n.nextIndex[peer] = backoff
}

// advanceCommitLocked advances the commit index to the highest N replicated
// on a majority whose entry is from the current term. Entries from earlier
// terms commit only indirectly. Callers must hold mu.
func (n *Node) advanceCommitLocked() {
	if n.role != Leader {
		return
	}

	indices := make([]uint64, 0, len(n.peers)+1)
	indices = append(indices, n.wal.LastIndex())
	for _, peer := range n.peers {
		indices = append(indices, n.matchIndex[peer])
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] > indices[j] })

	// Highest index present on a majority.
	candidate := indices[n.quorum()-1]

	for N := candidate; N > n.commitIndex; N-- {
		t, ok := n.wal.Term(N)
		if !ok {
			return
		}
		if t == n.term {
			n.commitIndex = N
			metrics.RaftCommitIndex.Set(float64(N))
			n.kickApply()
			return
		}
	}
}
