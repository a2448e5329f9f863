package raft

import (
	"context"
	"time"

	"github.com/ticketmesh/ticketmesh/pkg/events"
	"github.com/ticketmesh/ticketmesh/pkg/metrics"
)

// electionLoop watches the election deadline. A follower or candidate whose
// deadline passes without hearing from a leader starts a new election.
func (n *Node) electionLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.mu.Lock()
			expired := n.role != Leader && time.Now().After(n.electionDeadline)
			n.mu.Unlock()
			if expired {
				n.runElection()
			}
		case <-n.stopCh:
			return
		}
	}
}

// runElection transitions to candidate, votes for itself, and fans out
// RequestVote to every peer in parallel. A majority of grants (counting
// itself) makes it leader; a higher term in any response makes it follower.
func (n *Node) runElection() {
	n.mu.Lock()
	n.role = Candidate
	n.term++
	n.votedFor = n.id
	n.leaderID = ""
	if err := n.wal.SaveTermVote(n.term, n.votedFor); err != nil {
		n.logger.Error().Err(err).Msg("failed to persist candidacy")
		n.role = Follower
		n.mu.Unlock()
		return
	}
	n.resetElectionTimer()

	electionTerm := n.term
	lastIndex := n.wal.LastIndex()
	lastTerm := n.wal.LastTerm()
	peers := append([]string(nil), n.peers...)
	n.mu.Unlock()

	metrics.RaftElectionsTotal.Inc()
	metrics.RaftTerm.Set(float64(electionTerm))
	n.logger.Info().Uint64("term", electionTerm).Msg("starting election")

	req := &VoteRequest{
		Term:         electionTerm,
		CandidateID:  n.id,
		LastLogIndex: lastIndex,
		LastLogTerm:  lastTerm,
	}

	results := make(chan *VoteResponse, len(peers))
	for _, peer := range peers {
		go func(peer string) {
			ctx, cancel := context.WithTimeout(context.Background(), n.cfg.ElectionTimeoutMin/2)
			defer cancel()

			resp, err := n.transport.RequestVote(ctx, peer, req)
			if err != nil {
				n.logger.Debug().Err(err).Str("peer", peer).Msg("vote request failed")
				results <- nil
				return
			}
			results <- resp
		}(peer)
	}

	votes := 1 // own vote
	for i := 0; i < len(peers); i++ {
		resp := <-results
		if resp == nil {
			continue
		}

		n.mu.Lock()
		if resp.Term > n.term {
			n.stepDownLocked(resp.Term)
			n.resetElectionTimer()
			n.mu.Unlock()
			return
		}
		// The election is over if the term moved on or a leader appeared.
		if n.role != Candidate || n.term != electionTerm {
			n.mu.Unlock()
			return
		}
		n.mu.Unlock()

		if resp.VoteGranted {
			votes++
			if votes >= n.quorum() {
				n.becomeLeader(electionTerm)
				return
			}
		}
	}

	// No majority this cycle; fall back to follower and let the next
	// randomized timeout break the symmetry.
	n.mu.Lock()
	if n.role == Candidate && n.term == electionTerm {
		n.role = Follower
	}
	n.mu.Unlock()
}

// becomeLeader initializes per-peer replication state and immediately
// asserts leadership with a heartbeat.
func (n *Node) becomeLeader(term uint64) {
	n.mu.Lock()
	if n.role != Candidate || n.term != term {
		n.mu.Unlock()
		return
	}

	n.role = Leader
	n.leaderID = n.id
	next := n.wal.LastIndex() + 1
	for _, peer := range n.peers {
		n.nextIndex[peer] = next
		n.matchIndex[peer] = 0
	}
	n.mu.Unlock()

	metrics.RaftIsLeader.Set(1)
	n.logger.Info().Uint64("term", term).Msg("elected leader")
	n.publish(events.EventLeaderElected, "leader elected", map[string]string{"node_id": n.id})

	n.broadcastAppendEntries()
}
