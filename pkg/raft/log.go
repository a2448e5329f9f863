package raft

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketEntries = []byte("entries")
	bucketStable  = []byte("stable")

	keyCurrentTerm = []byte("current_term")
	keyVotedFor    = []byte("voted_for")
)

// ErrInconsistentAppend is returned when an append would leave a hole in the
// log. Indices are dense starting at 1; the only sanctioned rewrite is
// truncate-then-append during follower conflict resolution.
var ErrInconsistentAppend = errors.New("inconsistent append: non-dense log index")

// LogEntry is a single replicated log entry. Command is an opaque payload
// owned by the state machine; the log never inspects it.
type LogEntry struct {
	Index   uint64 `json:"index"`
	Term    uint64 `json:"term"`
	Command []byte `json:"command"`
}

// Log is the durable append-only Raft log, including the stable store for
// the node's current term and vote. Both live in one BoltDB file so a
// term/vote update and its surrounding log writes hit the same disk.
type Log struct {
	db        *bolt.DB
	lastIndex uint64
	lastTerm  uint64
	term      uint64
	votedFor  string
}

// OpenLog opens (or creates) the log file at path and recovers the last
// index, last term, and stable state.
func OpenLog(path string) (*Log, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}

	l := &Log{db: db}
	err = db.Update(func(tx *bolt.Tx) error {
		entries, err := tx.CreateBucketIfNotExists(bucketEntries)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketEntries, err)
		}
		stable, err := tx.CreateBucketIfNotExists(bucketStable)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketStable, err)
		}

		// Recover tail of the log
		if k, v := entries.Cursor().Last(); k != nil {
			var entry LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt log entry at key %x: %w", k, err)
			}
			l.lastIndex = entry.Index
			l.lastTerm = entry.Term
		}

		// Recover stable term and vote
		if v := stable.Get(keyCurrentTerm); v != nil {
			l.term = binary.BigEndian.Uint64(v)
		}
		if v := stable.Get(keyVotedFor); v != nil {
			l.votedFor = string(v)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// LastIndex returns the index of the last entry, 0 for an empty log.
func (l *Log) LastIndex() uint64 {
	return l.lastIndex
}

// LastTerm returns the term of the last entry, 0 for an empty log.
func (l *Log) LastTerm() uint64 {
	return l.lastTerm
}

// TermVote returns the persisted current term and vote.
func (l *Log) TermVote() (uint64, string) {
	return l.term, l.votedFor
}

// SaveTermVote durably records the current term and the vote cast in it.
func (l *Log) SaveTermVote(term uint64, votedFor string) error {
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStable)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], term)
		if err := b.Put(keyCurrentTerm, buf[:]); err != nil {
			return err
		}
		return b.Put(keyVotedFor, []byte(votedFor))
	})
	if err != nil {
		return fmt.Errorf("failed to persist term/vote: %w", err)
	}
	l.term = term
	l.votedFor = votedFor
	return nil
}

// Append writes entries to the tail of the log. The first entry must be at
// lastIndex+1 and the batch must be dense, otherwise ErrInconsistentAppend.
func (l *Log) Append(entries ...LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	expect := l.lastIndex + 1
	for _, e := range entries {
		if e.Index != expect {
			return ErrInconsistentAppend
		}
		expect++
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := b.Put(indexKey(e.Index), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append log entries: %w", err)
	}

	last := entries[len(entries)-1]
	l.lastIndex = last.Index
	l.lastTerm = last.Term
	return nil
}

// Get returns the entry at index, or nil if absent.
func (l *Log) Get(index uint64) (*LogEntry, error) {
	if index == 0 || index > l.lastIndex {
		return nil, nil
	}
	var entry LogEntry
	err := l.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketEntries).Get(indexKey(index))
		if data == nil {
			return fmt.Errorf("log entry %d missing below last index %d", index, l.lastIndex)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Term returns the term of the entry at index. ok is false if no entry
// exists there.
func (l *Log) Term(index uint64) (term uint64, ok bool) {
	entry, err := l.Get(index)
	if err != nil || entry == nil {
		return 0, false
	}
	return entry.Term, true
}

// Entries returns up to max entries starting at from, in index order.
func (l *Log) Entries(from uint64, max int) ([]LogEntry, error) {
	if from == 0 {
		from = 1
	}
	var out []LogEntry
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Seek(indexKey(from)); k != nil && len(out) < max; k, v = c.Next() {
			var entry LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read log entries from %d: %w", from, err)
	}
	return out, nil
}

// TruncateFrom deletes the entry at index and everything after it. Used by
// followers to drop a conflicting uncommitted suffix.
func (l *Log) TruncateFrom(index uint64) error {
	if index == 0 || index > l.lastIndex {
		return nil
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for i := index; i <= l.lastIndex; i++ {
			if err := b.Delete(indexKey(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to truncate log from %d: %w", index, err)
	}

	l.lastIndex = index - 1
	l.lastTerm = 0
	if l.lastIndex > 0 {
		entry, err := l.Get(l.lastIndex)
		if err != nil {
			return err
		}
		l.lastTerm = entry.Term
	}
	return nil
}

func indexKey(index uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], index)
	return buf[:]
}
