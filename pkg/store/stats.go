package store

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

const bucketStats = "stats"

var (
	hitsKey   = []byte("hits")
	missesKey = []byte("misses")
	savesKey  = []byte("saves")
)

func init() {
	initDB["initialize stats table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketStats))
		return err
	}
}

// Stats counts the lookups and writes of a cache since its creation.
type Stats struct {
	Hits, Misses, Saves uint64
}

func (c *CodeCache) count(key []byte) error {
	return c.db.Bolt().Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStats))
		return b.Put(key, marshalCount(unmarshalCount(b.Get(key))+1))
	})
}

// Stats returns the usage counters of the cache.
func (c *CodeCache) Stats() (Stats, error) {
	var s Stats
	err := c.db.Bolt().View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStats))
		s.Hits = unmarshalCount(b.Get(hitsKey))
		s.Misses = unmarshalCount(b.Get(missesKey))
		s.Saves = unmarshalCount(b.Get(savesKey))
		return nil
	})
	return s, err
}

func marshalCount(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func unmarshalCount(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
