package seats

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ticketmesh/ticketmesh/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketShows = []byte("shows")
	bucketMeta  = []byte("meta")

	keyAppliedIndex = []byte("applied_index")
)

// Store persists the state machine's catalog so a restarted node resumes
// from its applied index instead of replaying the whole log.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) the catalog snapshot file at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketShows, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveShow writes one show and the applied index in a single transaction.
func (s *Store) SaveShow(show *types.Show, applied uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(show)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketShows).Put([]byte(show.ShowID), data); err != nil {
			return err
		}
		return putApplied(tx, applied)
	})
}

// SaveApplied records apply progress for commands that changed nothing.
func (s *Store) SaveApplied(applied uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putApplied(tx, applied)
	})
}

// Load reads the full catalog and the applied index.
func (s *Store) Load() (map[string]*types.Show, uint64, error) {
	shows := make(map[string]*types.Show)
	var applied uint64

	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyAppliedIndex); v != nil {
			applied = binary.BigEndian.Uint64(v)
		}
		return tx.Bucket(bucketShows).ForEach(func(k, v []byte) error {
			var show types.Show
			if err := json.Unmarshal(v, &show); err != nil {
				return err
			}
			if show.Seats == nil {
				show.Seats = make(map[int]*types.SeatRecord)
			}
			shows[show.ShowID] = &show
			return nil
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load catalog: %w", err)
	}
	return shows, applied, nil
}

func putApplied(tx *bolt.Tx, applied uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], applied)
	return tx.Bucket(bucketMeta).Put(keyAppliedIndex, buf[:])
}
