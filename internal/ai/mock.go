package ai

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
	"github.com/mrz1836/compliance-copilot/internal/testutil"
)

// MockProvider implements Provider interface for testing.
// It uses testify/mock for call tracking and expectation verification.
type MockProvider struct {
	mock.Mock
}

// Ensure MockProvider implements Provider interface.
var _ Provider = (*MockProvider)(nil)

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// GenerateText generates text based on the given prompt.
func (m *MockProvider) GenerateText(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	args := m.Called(ctx, req)
	return testutil.HandleTwoValueReturn[*GenerateResponse](args)
}

// IsAvailable checks if the provider is properly configured and ready.
func (m *MockProvider) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// NewMockProvider creates a new MockProvider instance.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetupAvailable configures the mock to return the given availability status.
func (m *MockProvider) SetupAvailable(available bool) *MockProvider {
	m.On("IsAvailable").Return(available)
	return m
}

// SetupName configures the mock to return the given provider name.
func (m *MockProvider) SetupName(name string) *MockProvider {
	m.On("Name").Return(name)
	return m
}

// SetupGenerateText configures the mock to return the given response and error.
func (m *MockProvider) SetupGenerateText(response *GenerateResponse, err error) *MockProvider {
	m.On("GenerateText", mock.Anything, mock.Anything).Return(response, err)
	return m
}

// SetupGenerateTextOnce configures the mock to return the given response and error once.
func (m *MockProvider) SetupGenerateTextOnce(response *GenerateResponse, err error) *MockProvider {
	m.On("GenerateText", mock.Anything, mock.Anything).Return(response, err).Once()
	return m
}

// NewSuccessMock creates a mock provider that always returns content.
func NewSuccessMock(content string) *MockProvider {
	m := NewMockProvider()
	m.SetupAvailable(true)
	m.SetupName("mock-provider")
	m.SetupGenerateText(&GenerateResponse{
		Content:      content,
		TokensUsed:   len(content) / 4,
		FinishReason: "stop",
	}, nil)
	return m
}

// NewErrorMock creates a mock provider that always returns an error.
func NewErrorMock(err error) *MockProvider {
	m := NewMockProvider()
	m.SetupAvailable(true)
	m.SetupName("mock-provider")
	m.SetupGenerateText(nil, err)
	return m
}

// NewUnavailableMock creates a mock provider that reports as unavailable.
func NewUnavailableMock() *MockProvider {
	m := NewMockProvider()
	m.SetupAvailable(false)
	m.SetupName("mock-provider")
	return m
}

// StubSummarizer is a Summarizer test double that counts its calls.
//
// Fields and Err are returned from every call. Delay holds each call for
// that long and Gate, when set, blocks each call until it is closed;
// neither honors the context, which models a backend that hangs.
type StubSummarizer struct {
	NameValue string
	Fields    *SummaryFields
	Err       error
	Delay     time.Duration
	Gate      chan struct{}

	// Script, when set, decides each call's result by call number (1-based)
	// and takes precedence over Fields and Err.
	Script func(call int) (*SummaryFields, error)

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64

	mu     sync.Mutex
	levels []risk.Level
}

// Ensure StubSummarizer implements Summarizer interface.
var _ Summarizer = (*StubSummarizer)(nil)

// NewStubSummarizer returns a stub answering with a fixed rationale and actions.
func NewStubSummarizer(level risk.Level) *StubSummarizer {
	return &StubSummarizer{
		NameValue: "stub",
		Fields: &SummaryFields{
			Level:     level,
			Rationale: "Stub rationale for " + level.String() + " risk.",
			Actions:   []string{"Review the change", "Run the test suite"},
		},
	}
}

// Name returns the configured name.
func (s *StubSummarizer) Name() string {
	if s.NameValue == "" {
		return "stub"
	}
	return s.NameValue
}

// Summarize records the call and returns the configured result.
func (s *StubSummarizer) Summarize(_ context.Context, _ *source.CanonicalRecord, _ *risk.Features, level risk.Level) (*SummaryFields, error) {
	call := int(s.calls.Add(1))
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	s.mu.Lock()
	s.levels = append(s.levels, level)
	s.mu.Unlock()

	if s.Gate != nil {
		<-s.Gate
	}
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	if s.Script != nil {
		return s.Script(call)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Fields == nil {
		return nil, nil
	}
	fields := *s.Fields
	fields.Actions = slices.Clone(s.Fields.Actions)
	return &fields, nil
}

// Calls returns how many times Summarize was called.
func (s *StubSummarizer) Calls() int {
	return int(s.calls.Load())
}

// PeakConcurrency returns the largest number of simultaneous calls observed.
func (s *StubSummarizer) PeakConcurrency() int {
	return int(s.peak.Load())
}

// Levels returns the scored levels passed to each call, in call order.
func (s *StubSummarizer) Levels() []risk.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.levels)
}
