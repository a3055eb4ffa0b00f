package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medbook/backend/internal/domain/entities"
)

type mockAnalyticsRepo struct {
	mock.Mock
	logged chan *entities.SearchEvent
}

func (m *mockAnalyticsRepo) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	m.logged <- event
	return args.Error(0)
}

func (m *mockAnalyticsRepo) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]*entities.SearchEvent)
	return events, args.Error(1)
}

func TestTrackSearch_SurvivesCancelledRequest(t *testing.T) {
	repo := &mockAnalyticsRepo{logged: make(chan *entities.SearchEvent, 1)}
	repo.On("LogEvent", mock.Anything, mock.Anything).Return(nil)
	svc := NewSearchAnalyticsService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	svc.TrackSearch(ctx, &entities.SearchEvent{Query: "botox", Entity: entities.SearchEntityTreatment})
	cancel()

	select {
	case event := <-repo.logged:
		assert.Equal(t, "botox", event.Query)
	case <-time.After(time.Second):
		t.Fatal("event was not logged")
	}
	repo.AssertExpectations(t)
}

func TestTrackSearch_SkipsBlankQuery(t *testing.T) {
	repo := &mockAnalyticsRepo{logged: make(chan *entities.SearchEvent, 1)}
	svc := NewSearchAnalyticsService(repo)

	svc.TrackSearch(context.Background(), &entities.SearchEvent{Query: "   "})
	svc.TrackSearch(context.Background(), nil)

	select {
	case <-repo.logged:
		t.Fatal("blank query should not be logged")
	case <-time.After(50 * time.Millisecond):
	}
	repo.AssertNotCalled(t, "LogEvent", mock.Anything, mock.Anything)
}

func TestTrackSearch_RepositoryErrorIsSwallowed(t *testing.T) {
	repo := &mockAnalyticsRepo{logged: make(chan *entities.SearchEvent, 1)}
	repo.On("LogEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))
	svc := NewSearchAnalyticsService(repo)

	svc.TrackSearch(context.Background(), &entities.SearchEvent{Query: "fillers"})

	select {
	case <-repo.logged:
	case <-time.After(time.Second):
		t.Fatal("event was not attempted")
	}
}

func TestGetZeroResultQueries_DefaultLimit(t *testing.T) {
	repo := &mockAnalyticsRepo{}
	want := []*entities.SearchEvent{{ID: "e1", Query: "hydrafacial"}}
	repo.On("GetZeroResultQueries", mock.Anything, 100).Return(want, nil)
	svc := NewSearchAnalyticsService(repo)

	got, err := svc.GetZeroResultQueries(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}
