package testutil

import (
	"context"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/retailpulse/retailpulse/internal/validator"
	"github.com/stretchr/testify/suite"
)

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	source *InMemorySource
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.config = config.GetDefaultConfig()
	s.ctx = context.WithValue(context.Background(), types.CtxRequestID, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))
	s.source = NewInMemorySource(SampleDataset())
	s.now = SampleReferenceDate.Add(15 * time.Hour)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.source.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration. Tests may mutate it before
// building their service.
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetSource returns the in-memory snapshot source, loaded with SampleDataset
func (s *BaseServiceTestSuite) GetSource() *InMemorySource {
	return s.source
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the fixed test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// GetClock returns a clock frozen at GetNow
func (s *BaseServiceTestSuite) GetClock() func() time.Time {
	return func() time.Time { return s.now }
}

// AdvanceClock moves the clock returned by GetClock forward by d
func (s *BaseServiceTestSuite) AdvanceClock(d time.Duration) {
	s.now = s.now.Add(d)
}
