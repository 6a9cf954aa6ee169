// Package store persists generated programs across processes.
//
// The CodeCache is a bbolt database. Program records are kept and queried
// with bolthold; usage counters live in a plain bucket of their own.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"src.jsil.dev/pkg/buildinfo"
	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[store] ")

var initDB = map[string](func(*bolt.Tx) error){}

// CodeCache is a persistent compile.Cache. Records written by compiler
// versions outside the compatible range of the running one are ignored and
// removed.
type CodeCache struct {
	db         *bolthold.Store
	version    *semver.Version
	compatible *semver.Constraints
	now        func() time.Time
}

var _ compile.Cache = (*CodeCache)(nil)

// Open opens or creates the cache database at path, for programs generated
// by the running compiler.
func Open(path string) (*CodeCache, error) {
	return OpenVersion(path, buildinfo.Version)
}

// OpenVersion is like Open, but for programs generated by the given
// compiler version. Versions sharing the major and minor version are
// compatible.
func OpenVersion(path, version string) (*CodeCache, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, errors.Wrapf(err, "compiler version %q", version)
	}
	compatible, err := semver.NewConstraint(compatibleRange(v))
	if err != nil {
		return nil, errors.Wrap(err, "compatible versions")
	}

	db, err := bolthold.Open(path, 0o644, &bolthold.Options{
		Encoder: json.Marshal,
		Decoder: json.Unmarshal,
		Options: &bolt.Options{
			Timeout:      5 * time.Second,
			NoGrowSync:   bolt.DefaultOptions.NoGrowSync,
			FreelistType: bolt.DefaultOptions.FreelistType,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open code cache %s", path)
	}
	err = db.Bolt().Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return errors.Wrap(err, name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debugf("opened code cache %s for compiler %s", path, v)
	return &CodeCache{db, v, compatible, time.Now}, nil
}

func compatibleRange(v *semver.Version) string {
	return fmt.Sprintf("~%d.%d", v.Major(), v.Minor())
}

// Close closes the database.
func (c *CodeCache) Close() error {
	return c.db.Close()
}

// Compatible reports whether programs generated by a compiler version can
// be used: the version must share the major and minor version of the
// running compiler. A prerelease is only compatible with itself.
func (c *CodeCache) Compatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return v.Equal(c.version) || c.compatible.Check(v)
}
