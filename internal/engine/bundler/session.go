package bundler

import (
	"context"
	"sync"
	"sync/atomic"

	"go.trai.ch/jsbook/internal/core/domain"
)

// Compiler turns a cell source into a script.
type Compiler interface {
	Compile(ctx context.Context, in domain.BuildInput) domain.BuildOutput
}

// Session serializes the builds of a single cell.
// Starting a build cancels the previous one, and only the latest build is current.
type Session struct {
	compiler   Compiler
	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSession creates a Session compiling through compiler.
func NewSession(compiler Compiler) *Session {
	return &Session{compiler: compiler}
}

// Compile builds in. current is false when a newer build was started before this one finished,
// in which case out must be discarded.
func (s *Session) Compile(ctx context.Context, in domain.BuildInput) (out domain.BuildOutput, current bool) {
	gen := s.generation.Add(1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	out = s.compiler.Compile(ctx, in)
	return out, s.generation.Load() == gen
}

// Sessions holds one Session per cell.
type Sessions struct {
	compiler Compiler

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates an empty set of sessions compiling through compiler.
func NewSessions(compiler Compiler) *Sessions {
	return &Sessions{compiler: compiler, sessions: make(map[string]*Session)}
}

// Get returns the session of cellID, creating it on first use.
func (s *Sessions) Get(cellID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[cellID]
	if !ok {
		session = NewSession(s.compiler)
		s.sessions[cellID] = session
	}
	return session
}
