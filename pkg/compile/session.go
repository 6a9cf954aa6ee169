package compile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"src.jsil.dev/pkg/emit"
)

// ErrSessionClosed is returned when compiling with a closed Session.
var ErrSessionClosed = errors.New("compilation session closed")

// Key identifies a generated unit in a cache.
type Key struct {
	Kind   emit.UnitKind
	Strict bool
	// Hash is the hex SHA-256 of the name, source and options of the unit.
	Hash string
}

func (k Key) String() string {
	s := "sloppy"
	if k.Strict {
		s = "strict"
	}
	return fmt.Sprintf("%s/%s/%s", k.Kind, s, k.Hash)
}

// MakeKey computes the cache key of a unit.
func MakeKey(kind emit.UnitKind, name, src string, opts CompilerOptions, inheritedStrict bool) Key {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%q\x00%d\x00%t\x00%t\x00%t\x00",
		kind, name, opts.CompatibilityMode, opts.ForceStrictMode, opts.EnableILAnalysis, inheritedStrict)
	io.WriteString(h, src)
	return Key{kind, opts.ForceStrictMode || inheritedStrict, hex.EncodeToString(h.Sum(nil))}
}

// Cache persists generated units across sessions.
type Cache interface {
	// Load returns the program saved under the key, or nil if there is none.
	Load(Key) (*emit.Program, error)
	// Save records a program under the key.
	Save(Key, *emit.Program) error
}

// Session is the host-owned context of compilations. It keeps the programs
// it has generated, backed by an optional persistent Cache, so that the
// same source is lowered only once. A Session may be used concurrently;
// each compilation still has its own scope tree and emitter.
type Session struct {
	opts  CompilerOptions
	cache Cache

	mu     sync.Mutex
	mem    map[Key]*emit.Program
	closed bool
}

// NewSession creates a Session. The cache may be nil.
func NewSession(opts CompilerOptions, cache Cache) *Session {
	return &Session{opts: opts, cache: cache, mem: make(map[Key]*emit.Program)}
}

// Options returns the options used by all the compilations of s.
func (s *Session) Options() CompilerOptions { return s.opts }

// Compile returns the program of a global or eval unit, generating it if
// neither the session nor its cache has it.
func (s *Session) Compile(kind emit.UnitKind, name, src string, inheritedStrict bool) (*emit.Program, error) {
	key := MakeKey(kind, name, src, s.opts, inheritedStrict)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	p, ok := s.mem[key]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	if s.cache != nil {
		p, err := s.cache.Load(key)
		if err != nil {
			logger.Warnf("loading %v from code cache: %v", key, err)
		} else if p != nil {
			p.Link()
			logger.Debugf("code cache hit: %s", Describe(p))
			return s.remember(key, p), nil
		}
	}

	u := NewUnit(kind, name, src, s.opts)
	u.InheritedStrict = inheritedStrict
	p, err := u.GenerateCode()
	if err != nil {
		return nil, err
	}
	logger.Debugf("generated %s", Describe(p))
	p = s.remember(key, p)
	if s.cache != nil {
		if err := s.cache.Save(key, p); err != nil {
			logger.Warnf("saving %v to code cache: %v", key, err)
		}
	}
	return p, nil
}

// remember records p unless another compilation of the same unit won the
// race, in which case the earlier program is returned.
func (s *Session) remember(key Key, p *emit.Program) *emit.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return p
	}
	if q, ok := s.mem[key]; ok {
		return q
	}
	s.mem[key] = p
	return p
}

// Close tears down the session, closing its cache if it is an io.Closer.
// Closing a closed session does nothing.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.mem = nil
	if c, ok := s.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
