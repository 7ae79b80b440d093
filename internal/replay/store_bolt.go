package replay

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
	logging "gopkg.in/op/go-logging.v1"

	"github.com/hoprnet/hopr-mixnode/core/worker"
)

// Store is the abstract ReplayFilterStore capability (§6): load/save the
// bloom filter's pages periodically.
type Store interface {
	Load() (current, previous []byte, windowAt time.Time, err error)
	Save(current, previous []byte, windowAt time.Time) error
}

var bucketName = []byte("replay_filter")

// BoltStore persists the replay filter's generations in a bbolt database,
// the same embedded key-value store the teacher pulls in for on-disk
// state (go.mod's go.etcd.io/bbolt).
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the bbolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Load() (current, previous []byte, windowAt time.Time, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		current = append([]byte{}, b.Get([]byte("current"))...)
		previous = append([]byte{}, b.Get([]byte("previous"))...)
		if raw := b.Get([]byte("window_at")); len(raw) == 8 {
			windowAt = time.Unix(0, int64(binary.BigEndian.Uint64(raw)))
		}
		return nil
	})
	return
}

func (s *BoltStore) Save(current, previous []byte, windowAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Put([]byte("current"), current); err != nil {
			return err
		}
		if err := b.Put([]byte("previous"), previous); err != nil {
			return err
		}
		raw := make([]byte, 8)
		binary.BigEndian.PutUint64(raw, uint64(windowAt.UnixNano()))
		return b.Put([]byte("window_at"), raw)
	})
}

// Persistor is the background task that periodically flushes a Filter to
// a Store, grounded on disk.go's StateWriter worker: a single goroutine
// owning the write path, signaled to stop via HaltCh.
type Persistor struct {
	worker.Worker

	log      *logging.Logger
	filter   *Filter
	store    Store
	interval time.Duration
}

// NewPersistor constructs a Persistor; call Start to launch its
// goroutine.
func NewPersistor(log *logging.Logger, filter *Filter, store Store, interval time.Duration) *Persistor {
	return &Persistor{log: log, filter: filter, store: store, interval: interval}
}

// Start launches the periodic persistence goroutine.
func (p *Persistor) Start() {
	p.Go(p.loop)
}

func (p *Persistor) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.HaltCh():
			return
		case <-ticker.C:
			cur, prev, windowAt := p.filter.Snapshot()
			if err := p.store.Save(cur, prev, windowAt); err != nil {
				p.log.Errorf("replay filter persistence failed: %s", err)
			}
		}
	}
}
