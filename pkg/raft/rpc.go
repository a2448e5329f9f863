package raft

import (
	"context"

	"github.com/ticketmesh/ticketmesh/pkg/metrics"
)

// VoteRequest is the request-vote RPC payload.
type VoteRequest struct {
	Term         uint64 `json:"term"`
	CandidateID  string `json:"candidate_id"`
	LastLogIndex uint64 `json:"last_log_index"`
	LastLogTerm  uint64 `json:"last_log_term"`
}

// VoteResponse is the request-vote RPC reply.
type VoteResponse struct {
	Term        uint64 `json:"term"`
	VoteGranted bool   `json:"vote_granted"`
}

// AppendRequest is the append-entries RPC payload. An empty Entries slice
// is a heartbeat.
type AppendRequest struct {
	Term         uint64     `json:"term"`
	LeaderID     string     `json:"leader_id"`
	PrevLogIndex uint64     `json:"prev_log_index"`
	PrevLogTerm  uint64     `json:"prev_log_term"`
	Entries      []LogEntry `json:"entries"`
	LeaderCommit uint64     `json:"leader_commit"`
}

// AppendResponse is the append-entries RPC reply. On failure MatchIndex
// carries the follower's last index as a back-off hint.
type AppendResponse struct {
	Term       uint64 `json:"term"`
	Success    bool   `json:"success"`
	MatchIndex uint64 `json:"match_index"`
}

// RequestVote handles an incoming request-vote RPC.
func (n *Node) RequestVote(ctx context.Context, req *VoteRequest) (*VoteResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if req.Term < n.term {
		return &VoteResponse{Term: n.term, VoteGranted: false}, nil
	}
	if req.Term > n.term {
		n.stepDownLocked(req.Term)
	}

	upToDate := req.LastLogTerm > n.wal.LastTerm() ||
		(req.LastLogTerm == n.wal.LastTerm() && req.LastLogIndex >= n.wal.LastIndex())

	grant := (n.votedFor == "" || n.votedFor == req.CandidateID) && upToDate
	if grant {
		n.votedFor = req.CandidateID
		if err := n.wal.SaveTermVote(n.term, n.votedFor); err != nil {
			n.logger.Error().Err(err).Msg("failed to persist vote")
			return &VoteResponse{Term: n.term, VoteGranted: false}, nil
		}
		n.resetElectionTimer()
		n.logger.Debug().
			Str("candidate", req.CandidateID).
			Uint64("term", n.term).
			Msg("vote granted")
	}

	return &VoteResponse{Term: n.term, VoteGranted: grant}, nil
}

// AppendEntries handles an incoming append-entries RPC: heartbeat
// acknowledgement, log consistency check, conflict truncation, append, and
// commit index advancement.
func (n *Node) AppendEntries(ctx context.Context, req *AppendRequest) (*AppendResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if req.Term < n.term {
		return &AppendResponse{Term: n.term, Success: false}, nil
	}
	if req.Term > n.term {
		n.stepDownLocked(req.Term)
	} else if n.role != Follower {
		// A candidate observing a leader in its own term yields.
		n.role = Follower
	}
	n.leaderID = req.LeaderID
	n.resetElectionTimer()

	// Consistency check on the entry preceding the batch.
	if req.PrevLogIndex > 0 {
		t, ok := n.wal.Term(req.PrevLogIndex)
		if !ok || t != req.PrevLogTerm {
			return &AppendResponse{
				Term:       n.term,
				Success:    false,
				MatchIndex: n.wal.LastIndex(),
			}, nil
		}
	}

	// Append new entries, truncating a conflicting suffix first. Entries
	// already present with a matching term are skipped.
	for i, entry := range req.Entries {
		localTerm, exists := n.wal.Term(entry.Index)
		if exists && localTerm == entry.Term {
			continue
		}
		if exists {
			if err := n.wal.TruncateFrom(entry.Index); err != nil {
				n.logger.Error().Err(err).Uint64("index", entry.Index).Msg("failed to truncate conflicting suffix")
				return &AppendResponse{Term: n.term, Success: false, MatchIndex: n.wal.LastIndex()}, nil
			}
		}
		if err := n.wal.Append(req.Entries[i:]...); err != nil {
			n.logger.Error().Err(err).Uint64("index", entry.Index).Msg("failed to append replicated entries")
			return &AppendResponse{Term: n.term, Success: false, MatchIndex: n.wal.LastIndex()}, nil
		}
		break
	}
	metrics.RaftLastLogIndex.Set(float64(n.wal.LastIndex()))

	match := req.PrevLogIndex + uint64(len(req.Entries))
	if last := n.wal.LastIndex(); match > last {
		match = last
	}

	if req.LeaderCommit > n.commitIndex {
		commit := req.LeaderCommit
		if last := n.wal.LastIndex(); commit > last {
			commit = last
		}
		n.commitIndex = commit
		metrics.RaftCommitIndex.Set(float64(commit))
		n.kickApply()
	}

	return &AppendResponse{Term: n.term, Success: true, MatchIndex: match}, nil
}
