package reconciler

import (
	"context"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/stats"
)

// DomainStats is the cache domain for study statistics.
const DomainStats = "stats"

// StatsReconciler reconciles study sessions and their summary.
//
// Signed-in summaries come from the gateway; anonymous sessions live in the cache and are summarized locally.
type StatsReconciler struct {
	*Reconciler[models.StudyStats]
	gw  services.SessionsGateway
	agg *stats.Aggregator
	now func() time.Time
}

// NewStatsReconciler creates the stats domain over gw.
func NewStatsReconciler(gw services.SessionsGateway, opts Options, agg *stats.Aggregator, now func() time.Time) *StatsReconciler {
	domain := Domain[models.StudyStats]{
		Name:  DomainStats,
		Empty: func() models.StudyStats { return agg.Summarize(nil) },
		Clone: cloneStats,
		Fetch: gw.ListWithStreak,
	}
	return &StatsReconciler{Reconciler: New(domain, opts), gw: gw, agg: agg, now: now}
}

// Summary returns a copy of the loaded statistics.
func (s *StatsReconciler) Summary() models.StudyStats {
	return s.View().Data
}

// RecordSession stores a completed pomodoro session dated today.
func (s *StatsReconciler) RecordSession(ctx context.Context, req models.RecordSessionRequest) (*models.StudySession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var recorded models.StudySession
	err := s.Mutate(ctx, Mutation[models.StudyStats]{
		Remote: func(ctx context.Context, userID string) (func(models.StudyStats) models.StudyStats, error) {
			session, err := s.gw.Create(ctx, userID, req)
			if err != nil {
				return nil, err
			}
			recorded = *session

			summary, err := s.gw.ListWithStreak(ctx, userID)
			if err != nil {
				s.logger.Warn("session recorded but summary refresh failed, summarizing locally", "error", err)
				return func(current models.StudyStats) models.StudyStats {
					return s.agg.Summarize(append(current.Sessions, recorded))
				}, nil
			}
			return func(models.StudyStats) models.StudyStats { return summary }, nil
		},
		Local: func(current models.StudyStats) (models.StudyStats, error) {
			today := s.agg.Day(s.now())
			streak := s.agg.RollingStreak(stats.Latest(current.Sessions), today)

			recorded = *services.NewSession("", today, streak, req)
			recorded.ID = shared.GenerateLocalID()
			for i := range recorded.CompletedTasks {
				recorded.CompletedTasks[i].ID = shared.GenerateLocalID()
			}
			return s.agg.Summarize(append(current.Sessions, recorded)), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

func cloneStats(st models.StudyStats) models.StudyStats {
	out := st
	out.DailyStats = cloneSlice(st.DailyStats)
	out.Sessions = models.CloneSessions(st.Sessions)
	return out
}
