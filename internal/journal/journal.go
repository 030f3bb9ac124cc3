package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var selectionsBucket = []byte("selections")

// Record is one selection outcome. ErrorKind is empty on success.
type Record struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Memory        int       `json:"memory"`
	Disk          int       `json:"disk"`
	Candidates    []int     `json:"candidates"`
	PreferredNode *int      `json:"preferred_node,omitempty"`
	NodeID        int       `json:"node_id,omitempty"`
	AllocationID  int       `json:"allocation_id,omitempty"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Journal keeps selection records in a bbolt file, keyed by UUIDv7 so
// cursor order is creation order.
type Journal struct {
	db *bolt.DB
}

func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(selectionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal bucket: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append assigns an ID and timestamp when missing and stores the record.
func (j *Journal) Append(r Record) (Record, error) {
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return Record{}, fmt.Errorf("new record id: %w", err)
		}
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	buf, err := json.Marshal(r)
	if err != nil {
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	err = j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(selectionsBucket).Put(r.ID[:], buf)
	})
	if err != nil {
		return Record{}, fmt.Errorf("store record %s: %w", r.ID, err)
	}
	return r, nil
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(limit int) ([]Record, error) {
	records := []Record{}
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(selectionsBucket).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode record %x: %w", k, err)
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Purge drops every record and returns how many were removed.
func (j *Journal) Purge() (int, error) {
	var n int
	err := j.db.Update(func(tx *bolt.Tx) error {
		n = tx.Bucket(selectionsBucket).Stats().KeyN
		if err := tx.DeleteBucket(selectionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(selectionsBucket)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge journal: %w", err)
	}
	return n, nil
}
