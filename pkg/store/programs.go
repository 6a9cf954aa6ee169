package store

import (
	"time"

	"github.com/pkg/errors"
	"github.com/timshannon/bolthold"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/emit"
)

// Record is a program in the cache.
type Record struct {
	ID      string `boltholdKey:"ID"`
	Kind    emit.UnitKind
	Strict  bool
	Version string `boltholdIndex:"Version"`
	Program *emit.Program
	// Unix seconds.
	CreatedAt int64
	UsedAt    int64 `boltholdIndex:"UsedAt"`
}

// Load returns the program recorded under the key, or nil if there is no
// usable one.
func (c *CodeCache) Load(k compile.Key) (*emit.Program, error) {
	var rec Record
	err := c.db.Get(k.String(), &rec)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, c.count(missesKey)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %v", k)
	}
	if !c.Compatible(rec.Version) || rec.Program == nil {
		logger.Debugf("dropping %v from compiler %s", k, rec.Version)
		if err := c.db.Delete(rec.ID, &Record{}); err != nil {
			return nil, errors.Wrapf(err, "delete %v", k)
		}
		return nil, c.count(missesKey)
	}
	rec.UsedAt = c.now().Unix()
	if err := c.db.Update(rec.ID, &rec); err != nil {
		return nil, errors.Wrapf(err, "update %v", k)
	}
	rec.Program.Link()
	return rec.Program, c.count(hitsKey)
}

// Save records a program under the key, replacing any previous record.
func (c *CodeCache) Save(k compile.Key, p *emit.Program) error {
	now := c.now().Unix()
	rec := &Record{
		ID: k.String(), Kind: k.Kind, Strict: k.Strict,
		Version: c.version.String(), Program: p,
		CreatedAt: now, UsedAt: now,
	}
	if err := c.db.Upsert(rec.ID, rec); err != nil {
		return errors.Wrapf(err, "save %v", k)
	}
	return c.count(savesKey)
}

// Len returns the number of records in the cache.
func (c *CodeCache) Len() (int, error) {
	n, err := c.db.Count(&Record{}, &bolthold.Query{})
	return int(n), err
}

// Prune removes records written by incompatible compiler versions, and
// records unused for longer than maxAge if it is positive. It returns the
// number of records removed.
func (c *CodeCache) Prune(maxAge time.Duration) (int, error) {
	var recs []Record
	if err := c.db.Find(&recs, &bolthold.Query{}); err != nil {
		return 0, errors.Wrap(err, "list records")
	}
	cutoff := c.now().Add(-maxAge).Unix()
	n := 0
	for _, rec := range recs {
		if c.Compatible(rec.Version) && (maxAge <= 0 || rec.UsedAt >= cutoff) {
			continue
		}
		if err := c.db.Delete(rec.ID, &Record{}); err != nil {
			return n, errors.Wrapf(err, "delete %s", rec.ID)
		}
		n++
	}
	if n > 0 {
		logger.Infof("pruned %d records from the code cache", n)
	}
	return n, nil
}
