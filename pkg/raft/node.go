package raft

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ticketmesh/ticketmesh/pkg/events"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/metrics"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

// Role is the consensus role of a node.
type Role string

const (
	Follower  Role = "follower"
	Candidate Role = "candidate"
	Leader    Role = "leader"
)

// Transport sends consensus RPCs to peers. Implementations must honor the
// context deadline; a transport error is treated as peer-unavailable and
// retried on the next tick.
type Transport interface {
	RequestVote(ctx context.Context, peerID string, req *VoteRequest) (*VoteResponse, error)
	AppendEntries(ctx context.Context, peerID string, req *AppendRequest) (*AppendResponse, error)
}

// StateMachine is the deterministic applier of committed commands.
// Apply is called strictly in index order, exactly once per index per
// process lifetime, and must never fail: malformed or stale commands are
// applied as no-ops.
type StateMachine interface {
	Apply(index uint64, command []byte)
	AppliedIndex() uint64
}

// Config holds the tunable parameters of a consensus node.
type Config struct {
	NodeID             string
	Peers              []string
	HeartbeatInterval  time.Duration
	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration
	ProposalTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 50 * time.Millisecond
	}
	if c.ElectionTimeoutMin == 0 {
		c.ElectionTimeoutMin = 150 * time.Millisecond
	}
	if c.ElectionTimeoutMax == 0 {
		c.ElectionTimeoutMax = 300 * time.Millisecond
	}
	if c.ProposalTimeout == 0 {
		c.ProposalTimeout = 2 * time.Second
	}
	return c
}

// waiter tracks a local proposal awaiting apply. The recorded term lets the
// apply loop detect that a different leader's entry was committed at the
// proposal's index.
type waiter struct {
	term uint64
	ch   chan error
}

// Node is a consensus node. All mutable consensus state (term, vote, role,
// log, commit/apply indices, per-peer replication indices) is guarded by mu;
// outbound RPCs run outside the lock and their handlers re-enter it.
// The Log and StateMachine are owned by the node and must not be mutated by
// anyone else.
type Node struct {
	mu sync.Mutex

	id    string
	peers []string

	cfg       Config
	wal       *Log
	machine   StateMachine
	transport Transport
	broker    *events.Broker
	logger    zerolog.Logger

	// Persistent state, mirrored from the log's stable store
	term     uint64
	votedFor string

	// Volatile state
	role        Role
	leaderID    string
	commitIndex uint64
	lastApplied uint64

	// Leader state
	nextIndex  map[string]uint64
	matchIndex map[string]uint64

	electionDeadline time.Time
	rnd              *rand.Rand

	waiters map[uint64]*waiter

	applyCh chan struct{}
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// NewNode creates a consensus node on top of a durable log and a state
// machine. The broker is optional.
func NewNode(cfg Config, wal *Log, machine StateMachine, transport Transport, broker *events.Broker) *Node {
	cfg = cfg.withDefaults()

	term, votedFor := wal.TermVote()
	applied := machine.AppliedIndex()

	n := &Node{
		id:        cfg.NodeID,
		peers:     append([]string(nil), cfg.Peers...),
		cfg:       cfg,
		wal:       wal,
		machine:   machine,
		transport: transport,
		broker:    broker,
		logger:    log.WithComponent("raft").With().Str("node_id", cfg.NodeID).Logger(),

		term:     term,
		votedFor: votedFor,
		role:     Follower,

		// A locally applied prefix was committed by definition.
		commitIndex: applied,
		lastApplied: applied,

		nextIndex:  make(map[string]uint64),
		matchIndex: make(map[string]uint64),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		waiters:    make(map[uint64]*waiter),
		applyCh:    make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
	return n
}

// Start launches the election, heartbeat, and apply loops.
func (n *Node) Start() {
	n.mu.Lock()
	n.resetElectionTimer()
	n.mu.Unlock()

	n.wg.Add(3)
	go n.electionLoop()
	go n.heartbeatLoop()
	go n.applyLoop()

	n.logger.Info().
		Strs("peers", n.peers).
		Uint64("term", n.term).
		Uint64("applied", n.lastApplied).
		Msg("raft node started")
}

// Stop shuts the node down and fails any pending proposals.
func (n *Node) Stop() {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.stopped = true
	close(n.stopCh)
	n.failWaitersLocked(types.ErrInternal)
	n.mu.Unlock()

	n.wg.Wait()
	n.logger.Info().Msg("raft node stopped")
}

// Status is a point-in-time snapshot of the node's consensus state.
type Status struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	Term         uint64 `json:"term"`
	LeaderID     string `json:"leader_id,omitempty"`
	CommitIndex  uint64 `json:"commit_index"`
	AppliedIndex uint64 `json:"applied_index"`
	LastLogIndex uint64 `json:"last_log_index"`
}

// Status returns the node's current consensus state.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Status{
		ID:           n.id,
		Role:         n.role,
		Term:         n.term,
		LeaderID:     n.leaderID,
		CommitIndex:  n.commitIndex,
		AppliedIndex: n.lastApplied,
		LastLogIndex: n.wal.LastIndex(),
	}
}

// IsLeader reports whether this node currently believes it is the leader.
func (n *Node) IsLeader() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role == Leader
}

// LeaderID returns the last known leader, possibly empty.
func (n *Node) LeaderID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.leaderID
}

// Propose appends a command to the log as leader and blocks until the
// entry has been committed and applied, the node loses leadership, or the
// proposal deadline expires. It returns the entry's log index.
func (n *Node) Propose(ctx context.Context, command []byte) (uint64, error) {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return 0, types.ErrNotLeader
	}

	index := n.wal.LastIndex() + 1
	entry := LogEntry{Index: index, Term: n.term, Command: command}
	if err := n.wal.Append(entry); err != nil {
		n.mu.Unlock()
		n.logger.Error().Err(err).Uint64("index", index).Msg("failed to append proposal")
		return 0, types.ErrInternal
	}
	metrics.RaftLastLogIndex.Set(float64(index))

	w := &waiter{term: n.term, ch: make(chan error, 1)}
	n.waiters[index] = w

	// A single-node cluster commits immediately.
	n.advanceCommitLocked()
	n.mu.Unlock()

	go n.broadcastAppendEntries()

	select {
	case err := <-w.ch:
		if err != nil {
			metrics.RaftProposalsTotal.WithLabelValues("lost_leadership").Inc()
			return 0, err
		}
		metrics.RaftProposalsTotal.WithLabelValues("applied").Inc()
		return index, nil
	case <-ctx.Done():
		n.removeWaiter(index)
		metrics.RaftProposalsTotal.WithLabelValues("timeout").Inc()
		return 0, types.ErrProposalTimeout
	case <-time.After(n.cfg.ProposalTimeout):
		n.removeWaiter(index)
		metrics.RaftProposalsTotal.WithLabelValues("timeout").Inc()
		return 0, types.ErrProposalTimeout
	case <-n.stopCh:
		return 0, types.ErrInternal
	}
}

func (n *Node) removeWaiter(index uint64) {
	n.mu.Lock()
	delete(n.waiters, index)
	n.mu.Unlock()
}

// failWaitersLocked resolves every pending proposal with err.
func (n *Node) failWaitersLocked(err error) {
	for index, w := range n.waiters {
		w.ch <- err
		delete(n.waiters, index)
	}
}

// stepDownLocked moves the node to follower in the given term, clearing the
// vote and failing pending proposals if it was leading. It does not touch
// the election timer: only a valid leader contact or a granted vote earns a
// fresh timeout, so a higher-term candidate with a stale log cannot keep
// suppressing elections here.
func (n *Node) stepDownLocked(term uint64) {
	wasLeader := n.role == Leader

	n.term = term
	n.votedFor = ""
	n.role = Follower
	if err := n.wal.SaveTermVote(n.term, n.votedFor); err != nil {
		n.logger.Error().Err(err).Msg("failed to persist term on step-down")
	}
	metrics.RaftTerm.Set(float64(n.term))
	metrics.RaftIsLeader.Set(0)

	if wasLeader {
		n.logger.Warn().Uint64("term", term).Msg("stepping down: higher term observed")
		n.failWaitersLocked(types.ErrLeadershipLost)
		n.publish(events.EventLeaderStepDown, "leader stepped down", map[string]string{"node_id": n.id})
	}
}

// resetElectionTimer re-arms the election deadline with a fresh randomized
// timeout. Callers must hold mu.
func (n *Node) resetElectionTimer() {
	window := n.cfg.ElectionTimeoutMax - n.cfg.ElectionTimeoutMin
	timeout := n.cfg.ElectionTimeoutMin + time.Duration(n.rnd.Int63n(int64(window)+1))
	n.electionDeadline = time.Now().Add(timeout)
}

// applyLoop advances lastApplied toward commitIndex, applying entries in
// strict index order and resolving proposal waiters after apply.
func (n *Node) applyLoop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.applyCh:
			n.applyCommitted()
		case <-n.stopCh:
			return
		}
	}
}

func (n *Node) applyCommitted() {
	for {
		n.mu.Lock()
		if n.lastApplied >= n.commitIndex {
			n.mu.Unlock()
			return
		}
		index := n.lastApplied + 1
		entry, err := n.wal.Get(index)
		if err != nil || entry == nil {
			// A committed index with no entry is an invariant violation.
			n.mu.Unlock()
			n.logger.Fatal().Err(err).Uint64("index", index).Msg("corrupted log: committed entry missing")
			return
		}
		n.mu.Unlock()

		n.machine.Apply(entry.Index, entry.Command)

		n.mu.Lock()
		n.lastApplied = index
		metrics.RaftAppliedIndex.Set(float64(index))
		w := n.waiters[index]
		delete(n.waiters, index)
		n.mu.Unlock()

		if w != nil {
			// A different term at this index means the original proposal
			// was replaced before commit.
			if entry.Term == w.term {
				w.ch <- nil
			} else {
				w.ch <- types.ErrLeadershipLost
			}
		}
	}
}

// kickApply nudges the apply loop. Callers must hold mu.
func (n *Node) kickApply() {
	select {
	case n.applyCh <- struct{}{}:
	default:
	}
}

func (n *Node) publish(eventType events.EventType, msg string, metadata map[string]string) {
	if n.broker == nil {
		return
	}
	n.broker.Publish(&events.Event{
		ID:       uuid.New().String(),
		Type:     eventType,
		Message:  msg,
		Metadata: metadata,
	})
}

// quorum returns the majority size for the cluster including this node.
func (n *Node) quorum() int {
	return (len(n.peers)+1)/2 + 1
}
