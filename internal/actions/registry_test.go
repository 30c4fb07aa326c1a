package actions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/frontdesk/internal/completion"
	"github.com/xaenox/frontdesk/internal/gbp"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/quota"
	"github.com/xaenox/frontdesk/internal/storage"
	"go.uber.org/zap"
)

type stubProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (p *stubProvider) Complete(ctx context.Context, messages []completion.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.response, p.err
}

type fakeProfile struct {
	mu          sync.Mutex
	reviews     []gbp.Review
	replies     map[string]string
	description string
	updateErr   error
}

func (f *fakeProfile) ListReviews(ctx context.Context, token, location string) ([]gbp.Review, error) {
	return f.reviews, nil
}

func (f *fakeProfile) ReplyToReview(ctx context.Context, token, reviewName, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replies == nil {
		f.replies = map[string]string{}
	}
	f.replies[reviewName] = comment
	return nil
}

func (f *fakeProfile) UpdateDescription(ctx context.Context, token, location, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.description = description
	return nil
}

type fixture struct {
	store    *storage.MemoryStorage
	provider *stubProvider
	profile  *fakeProfile
	registry *Registry
	now      time.Time
}

func newFixture(t *testing.T, limits quota.Limits) *fixture {
	t.Helper()
	f := &fixture{
		store:    storage.NewMemoryStorage(),
		provider: &stubProvider{response: "Fresh sourdough every morning."},
		profile:  &fakeProfile{},
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.registry = NewRegistry(Deps{
		Store:    f.store,
		Provider: f.provider,
		Guard:    quota.NewUsageGuard(f.store, limits, zap.NewNop(), quota.WithClock(clock)),
		Profile:  f.profile,
		Now:      clock,
		Logger:   zap.NewNop(),
	})
	return f
}

func (f *fixture) project(t *testing.T, features ...models.Feature) *models.Project {
	t.Helper()
	status := models.ProjectActive
	name := "Corner Bakery"
	p, err := f.store.UpsertProject(context.Background(), "proj-1", models.ProjectPatch{
		BusinessName: &name,
		Features:     &features,
		Status:       &status,
	})
	require.NoError(t, err)
	return p
}

func TestExecuteUnknownAction(t *testing.T) {
	f := newFixture(t, quota.DefaultLimits())
	contexts := []ActionContext{
		{},
		{Project: &models.Project{ID: "p"}},
		{Project: &models.Project{ID: "p", Features: models.FeatureCatalog}, ChatID: "42", Channel: "telegram"},
	}
	for _, actx := range contexts {
		var result models.ActionResult
		require.NotPanics(t, func() {
			result = f.registry.Execute(context.Background(), "nonexistent_action", map[string]any{}, actx)
		})
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Message)
	}
	assert.Equal(t, 0, f.provider.calls)
}

func TestExecuteFeatureGate(t *testing.T) {
	f := newFixture(t, quota.DefaultLimits())
	project := &models.Project{ID: "p", Status: models.ProjectActive, Features: []models.Feature{}}

	all := f.registry.Catalog(models.FeatureCatalog)
	require.Len(t, all, 6)
	for _, info := range all {
		t.Run(info.Name, func(t *testing.T) {
			for _, payload := range []map[string]any{nil, {}, {"limit": 1, "description": "x", "topic": "y"}} {
				result := f.registry.Execute(context.Background(), info.Name, payload, ActionContext{Project: project})
				assert.False(t, result.Success)
				assert.Contains(t, result.Message, string(info.Feature))
			}
		})
	}
	assert.Equal(t, 0, f.provider.calls)
	assert.Empty(t, f.profile.replies)
}

func TestExecuteRecoversFromPanicsAndErrors(t *testing.T) {
	r := newRegistry(zap.NewNop(), []action{
		{
			info: models.ActionInfo{Name: "boom", Feature: models.FeatureFollowUps},
			handler: func(context.Context, map[string]any, ActionContext) (models.ActionResult, error) {
				panic("handler exploded")
			},
		},
		{
			info: models.ActionInfo{Name: "fail", Feature: models.FeatureFollowUps},
			handler: func(context.Context, map[string]any, ActionContext) (models.ActionResult, error) {
				return models.ActionResult{}, errors.New("backend down")
			},
		},
		{
			info: models.ActionInfo{Name: "markdown", Feature: models.FeatureFollowUps},
			handler: func(context.Context, map[string]any, ActionContext) (models.ActionResult, error) {
				return models.ActionResult{Success: true, Message: "**Done** [1]"}, nil
			},
		},
	})
	actx := ActionContext{Project: &models.Project{ID: "p", Features: []models.Feature{models.FeatureFollowUps}}}

	boom := r.Execute(context.Background(), "boom", nil, actx)
	assert.False(t, boom.Success)
	assert.Contains(t, boom.Error, "handler exploded")

	fail := r.Execute(context.Background(), "fail", nil, actx)
	assert.False(t, fail.Success)
	assert.Equal(t, "backend down", fail.Error)
	assert.NotContains(t, fail.Message, "backend")

	md := r.Execute(context.Background(), "markdown", nil, actx)
	assert.True(t, md.Success)
	assert.Equal(t, "Done", md.Message)
}

func TestCatalogFiltersByFeature(t *testing.T) {
	f := newFixture(t, quota.DefaultLimits())

	got := f.registry.Catalog([]models.Feature{models.FeatureSEOContent})
	var names []string
	for _, info := range got {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{GenerateSEODescription, GenerateSEOKeywords, GenerateSEOPost}, names)
	assert.Empty(t, f.registry.Catalog(nil))
	assert.True(t, f.registry.Has(ScheduleFollowUp))
	assert.False(t, f.registry.Has("nonexistent_action"))
}

func TestGenerateSEOPost(t *testing.T) {
	f := newFixture(t, quota.DefaultLimits())
	project := f.project(t, models.FeatureSEOContent)

	result := f.registry.Execute(context.Background(), GenerateSEOPost, map[string]any{"topic": "croissants"}, ActionContext{Project: project})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Fresh sourdough every morning.", result.Message)
	assert.Equal(t, 1, f.provider.calls)

	used, err := f.store.CountEvents(context.Background(), project.ID, models.EventUsage, f.now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestGenerateSEODeniedByUsageGuard(t *testing.T) {
	limits := quota.DefaultLimits()
	limits.UsagePerDay = 1
	f := newFixture(t, limits)
	project := f.project(t, models.FeatureSEOContent)

	first := f.registry.Execute(context.Background(), GenerateSEOKeywords, nil, ActionContext{Project: project})
	require.True(t, first.Success)

	second := f.registry.Execute(context.Background(), GenerateSEOKeywords, nil, ActionContext{Project: project})
	assert.False(t, second.Success)
	assert.Contains(t, second.Message, "try again tomorrow")
	assert.Equal(t, 1, f.provider.calls, "denied generation must not reach the provider")
}

func TestGenerateSEOProviderError(t *testing.T) {
	f := newFixture(t, quota.DefaultLimits())
	f.provider.err = errors.New("503")
	project := f.project(t, models.FeatureSEOContent)

	result := f.registry.Execute(context.Background(), GenerateSEODescription, nil, ActionContext{Project: project})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "503")
}

func TestScheduleFollowUp(t *testing.T) {
	f := newFixture(t, quota.DefaultLimits())
	project := f.project(t, models.FeatureFollowUps)

	result := f.registry.Execute(context.Background(), ScheduleFollowUp,
		map[string]any{"delay_hours": float64(48), "note": "ask about the cake order"},
		ActionContext{Project: project, ChatID: "42", Channel: "telegram"})
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Message, "Sun, 03 Mar at 12:00 UTC")
	assert.Equal(t, "2024-03-03T12:00:00Z", result.Data["execute_at"])

	pending, err := f.store.CountPendingTasks(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 0, f.provider.calls)
}

func TestUpdateBusinessDescription(t *testing.T) {
	t.Run("explicit text, google connected", func(t *testing.T) {
		f := newFixture(t, quota.DefaultLimits())
		f.project(t, models.FeatureProfileManagement)
		token, location := "tok", "locations/1"
		project, err := f.store.UpsertProject(context.Background(), "proj-1", models.ProjectPatch{
			GoogleAccessToken:  &token,
			GoogleLocationName: &location,
		})
		require.NoError(t, err)

		result := f.registry.Execute(context.Background(), UpdateBusinessDescription,
			map[string]any{"description": "Family bakery since 1998."}, ActionContext{Project: project})
		require.True(t, result.Success, result.Error)
		assert.Contains(t, result.Message, "on Google")
		assert.Equal(t, "Family bakery since 1998.", f.profile.description)

		stored, err := f.store.GetProject(context.Background(), project.ID)
		require.NoError(t, err)
		assert.Equal(t, "Family bakery since 1998.", stored.BusinessDescription)
		assert.Equal(t, 0, f.provider.calls)
	})

	t.Run("generated text, google push fails", func(t *testing.T) {
		f := newFixture(t, quota.DefaultLimits())
		f.profile.updateErr = errors.New("forbidden")
		f.provider.response = strings.Repeat("a", 900)
		project := f.project(t, models.FeatureProfileManagement)
		project.GoogleAccessToken, project.GoogleLocationName = "tok", "locations/1"

		result := f.registry.Execute(context.Background(), UpdateBusinessDescription, nil, ActionContext{Project: project})
		require.True(t, result.Success, result.Error)
		assert.Contains(t, result.Message, "couldn't update Google")
		assert.Equal(t, false, result.Data["google_synced"])

		stored, err := f.store.GetProject(context.Background(), project.ID)
		require.NoError(t, err)
		assert.Len(t, stored.BusinessDescription, maxDescriptionRunes)
	})
}

func TestReplyGoogleReviews(t *testing.T) {
	review := func(name, stars string, replied bool) gbp.Review {
		r := gbp.Review{Name: name, StarRating: stars, Comment: "Lovely bread"}
		if replied {
			r.ReviewReply = &struct {
				Comment string `json:"comment"`
			}{Comment: "Thanks!"}
		}
		return r
	}

	t.Run("not connected", func(t *testing.T) {
		f := newFixture(t, quota.DefaultLimits())
		project := f.project(t, models.FeatureGoogleReviews)

		result := f.registry.Execute(context.Background(), ReplyGoogleReview, nil, ActionContext{Project: project})
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "not connected")
	})

	t.Run("replies to unanswered reviews up to limit", func(t *testing.T) {
		f := newFixture(t, quota.DefaultLimits())
		f.profile.reviews = []gbp.Review{
			review("r1", "FIVE", false),
			review("r2", "FOUR", true),
			review("r3", "TWO", false),
			review("r4", "ONE", false),
		}
		project := f.project(t, models.FeatureGoogleReviews)
		project.GoogleAccessToken, project.GoogleLocationName = "tok", "locations/1"

		result := f.registry.Execute(context.Background(), ReplyGoogleReview, map[string]any{"limit": float64(2)}, ActionContext{Project: project})
		require.True(t, result.Success, result.Error)
		assert.Equal(t, "Replied to 2 of 3 unanswered reviews.", result.Message)
		assert.Len(t, f.profile.replies, 2)
		assert.Contains(t, f.profile.replies, "r1")
		assert.Contains(t, f.profile.replies, "r3")
		assert.Equal(t, 2, f.provider.calls)
	})

	t.Run("nothing to answer", func(t *testing.T) {
		f := newFixture(t, quota.DefaultLimits())
		f.profile.reviews = []gbp.Review{review("r1", "FIVE", true)}
		project := f.project(t, models.FeatureGoogleReviews)
		project.GoogleAccessToken, project.GoogleLocationName = "tok", "locations/1"

		result := f.registry.Execute(context.Background(), ReplyGoogleReview, nil, ActionContext{Project: project})
		assert.True(t, result.Success)
		assert.Equal(t, 0, f.provider.calls)
	})
}
