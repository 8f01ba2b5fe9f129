package mock

import (
	"context"
	"sync"
)

// MockGenerator is a test double for ai.Generator.
// It records every prompt it receives and allows behavior injection.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns Response.
	GenerateFunc func(ctx context.Context, system, user string) (string, error)

	// Response is the canned answer returned when GenerateFunc is nil.
	Response string

	mu        sync.Mutex
	callCount int
	lastSys   string
	lastUser  string
}

// NewMockGenerator creates a mock generator returning the given canned response.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// Generate returns the canned response or delegates to GenerateFunc.
func (m *MockGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastSys = system
	m.lastUser = user
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, user)
	}
	return m.Response, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompts returns the system and user prompts of the most recent call.
func (m *MockGenerator) LastPrompts() (system, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSys, m.lastUser
}
