package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/internal/store"
)

type sweepRepoStub struct {
	store.Repository

	stuck     []domain.Application
	err       error
	olderThan time.Duration
}

func (s *sweepRepoStub) FindStuckApplications(ctx context.Context, olderThan time.Duration) ([]domain.Application, error) {
	s.olderThan = olderThan
	if s.err != nil {
		return nil, s.err
	}
	return s.stuck, nil
}

func TestSweepStuckApplications_AlertsEachStuckApplication(t *testing.T) {
	stuck := []domain.Application{
		{ID: uuid.New(), Status: domain.StatusPendingCRCCheck, UpdatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: uuid.New(), Status: domain.StatusPendingCRCCheck, UpdatedAt: time.Now().Add(-45 * time.Minute)},
	}
	repo := &sweepRepoStub{stuck: stuck}
	alerter := &recordingAlerter{}
	jobs := NewJobs(repo, alerter, nil, 30*time.Minute)

	jobs.SweepStuckApplications()

	if repo.olderThan != 30*time.Minute {
		t.Fatalf("expected threshold 30m, got %s", repo.olderThan)
	}
	if len(alerter.alerts) != len(stuck) {
		t.Fatalf("expected %d alerts, got %d", len(stuck), len(alerter.alerts))
	}
	for i, alert := range alerter.alerts {
		if alert.Code != domain.AlertCodeStuckApplication {
			t.Fatalf("unexpected alert code %q", alert.Code)
		}
		if alert.ApplicationID != stuck[i].ID {
			t.Fatal("alert must name the stuck application")
		}
	}
}

func TestSweepStuckApplications_NoAlertsWhenClean(t *testing.T) {
	alerter := &recordingAlerter{}
	jobs := NewJobs(&sweepRepoStub{}, alerter, nil, 30*time.Minute)

	jobs.SweepStuckApplications()
	if len(alerter.alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerter.alerts))
	}
}

func TestSweepStuckApplications_ToleratesStoreError(t *testing.T) {
	alerter := &recordingAlerter{}
	jobs := NewJobs(&sweepRepoStub{err: errors.New("db down")}, alerter, nil, 30*time.Minute)

	jobs.SweepStuckApplications()
	if len(alerter.alerts) != 0 {
		t.Fatal("a failed listing must not raise alerts")
	}
}
