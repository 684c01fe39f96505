package trip

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "trips"

// ErrNotFound is returned when a trip does not exist
var ErrNotFound = errors.New("trip not found")

// DB defines the interface for database operations
type DB interface {
	// SaveTrip inserts or replaces a trip
	SaveTrip(trip *Trip) error

	// GetTrip retrieves a trip by ID
	GetTrip(id string) (*Trip, error)

	// ListTrips returns all trips, newest first
	ListTrips() ([]*Trip, error)

	// DeleteTrip removes a trip
	DeleteTrip(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveTrip inserts or replaces a trip
func (b *BoltDB) SaveTrip(trip *Trip) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(trip)
		if err != nil {
			return fmt.Errorf("marshaling trip: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(trip.ID), data)
	})
}

// GetTrip retrieves a trip by ID
func (b *BoltDB) GetTrip(id string) (*Trip, error) {
	var trip *Trip
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// ListTrips returns all trips, newest first
func (b *BoltDB) ListTrips() ([]*Trip, error) {
	trips := make([]*Trip, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var trip Trip
			if err := json.Unmarshal(v, &trip); err != nil {
				return fmt.Errorf("unmarshaling trip %s: %w", k, err)
			}
			trips = append(trips, &trip)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	return trips, nil
}

// DeleteTrip removes a trip
func (b *BoltDB) DeleteTrip(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
