package category

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	snapshotBucket = "category_snapshot"
	snapshotKey    = "latest"
)

// SnapshotCache keeps the last good taxonomy snapshot on disk so a
// restart without database connectivity still serves real categories
// instead of the bundled defaults.
type SnapshotCache struct {
	db *bbolt.DB
}

// NewSnapshotCache opens (or creates) the cache file.
func NewSnapshotCache(path string) (*SnapshotCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot bucket: %w", err)
	}
	return &SnapshotCache{db: db}, nil
}

// Put stores a snapshot, replacing the previous one.
func (c *SnapshotCache) Put(snapshot string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(snapshotBucket)).Put([]byte(snapshotKey), []byte(snapshot))
	})
}

// Get returns the stored snapshot, or "" when none has been written yet.
func (c *SnapshotCache) Get() (string, error) {
	var snapshot string
	err := c.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket([]byte(snapshotBucket)).Get([]byte(snapshotKey)); data != nil {
			snapshot = string(data)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return snapshot, nil
}

// Close closes the cache file.
func (c *SnapshotCache) Close() error {
	return c.db.Close()
}
