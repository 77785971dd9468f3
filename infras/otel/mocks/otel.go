// Package mocks provides tracing doubles. NewOtel discards everything, NewRecorder keeps
// what was traced so tests can assert on it.
package mocks

import (
	"context"
	"sync"

	"resort/infras/otel"
)

type Recorder struct {
	mu         sync.Mutex
	Spans      []string
	Errors     []error
	Events     []string
	Attributes map[string]any
}

func NewRecorder() *Recorder {
	return &Recorder{Attributes: map[string]any{}}
}

func NewOtel() otel.Otel {
	return NewRecorder()
}

// NewScope implements otel.Otel.
func (r *Recorder) NewScope(ctx context.Context, _, spanName string) (context.Context, otel.Scope) {
	r.mu.Lock()
	r.Spans = append(r.Spans, spanName)
	r.mu.Unlock()

	return ctx, &scope{rec: r}
}

// RecordedErrors returns a copy of every error traced so far.
func (r *Recorder) RecordedErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.Errors...)
}

type scope struct {
	rec *Recorder
}

func (s *scope) End() {}

func (s *scope) TraceError(err error) {
	if err == nil {
		return
	}

	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()

	s.rec.Errors = append(s.rec.Errors, err)
}

func (s *scope) TraceIfError(err error) {
	s.TraceError(err)
}

func (s *scope) AddEvent(name string) {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()

	s.rec.Events = append(s.rec.Events, name)
}

func (s *scope) SetAttribute(key string, value any) {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()

	s.rec.Attributes[key] = value
}

func (s *scope) SetAttributes(attributes map[string]any) {
	for key, value := range attributes {
		s.SetAttribute(key, value)
	}
}
