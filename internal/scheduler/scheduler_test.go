package scheduler

import (
	"context"
	"testing"

	"github.com/retailpulse/retailpulse/internal/cache"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/sentry"
	"github.com/retailpulse/retailpulse/internal/service"
	"github.com/retailpulse/retailpulse/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type SchedulerSuite struct {
	testutil.BaseServiceTestSuite
	runs      *service.RunCache
	scheduler *PipelineScheduler
}

func TestPipelineScheduler(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	cfg := s.GetConfig()

	params := service.NewServiceParams(s.GetLogger(), cfg, s.GetSource())
	params.Clock = s.GetClock()
	pipeline, err := service.NewPipelineService(params)
	s.Require().NoError(err)

	s.runs = service.NewRunCache(cache.NewInMemoryCache(cfg, s.GetLogger()), s.GetLogger())
	s.scheduler = NewPipelineScheduler(cfg, pipeline, s.runs, sentry.NewSentryService(cfg, s.GetLogger()), s.GetLogger())
}

func (s *SchedulerSuite) TestRunOnce() {
	s.Require().NoError(s.scheduler.RunOnce(s.GetContext()))

	latest, ok := s.runs.Latest(s.GetContext())
	s.Require().True(ok)
	s.Equal(testutil.SampleReferenceDate, latest.ReferenceDate)
	s.Contains(latest.RunID, "run_")
	s.Equal(1, s.GetSource().Loads())
}

func (s *SchedulerSuite) TestRunOnce_SourceError() {
	s.GetSource().SetError(ierr.NewError("connection refused").Mark(ierr.ErrDatabase))

	err := s.scheduler.RunOnce(s.GetContext())
	s.True(ierr.IsDatabase(err))
	_, ok := s.runs.Latest(s.GetContext())
	s.False(ok)
}

func (s *SchedulerSuite) TestStartAndStop() {
	s.Require().NoError(s.scheduler.Start())
	s.NoError(s.scheduler.Stop(context.Background()))
}

func (s *SchedulerSuite) TestStart_InvalidSpec() {
	s.scheduler.spec = "every tuesday"
	s.True(ierr.IsValidation(s.scheduler.Start()))
}
