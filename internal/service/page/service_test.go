package page

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

type memPages struct {
	pages map[string]*model.Page
}

func (m *memPages) Get(_ context.Context, slug string) (*model.Page, error) {
	p, ok := m.pages[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPages) List(context.Context) ([]*model.Page, error) {
	out := []*model.Page{}
	for _, p := range m.pages {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPages) Upsert(_ context.Context, p *model.Page) error {
	m.pages[p.Slug] = p
	return nil
}

func newTestService() *Service {
	return NewService(&memPages{pages: map[string]*model.Page{}}, validator.New(validator.Rules{}))
}

func TestGet_DefaultScaffoldForKnownPage(t *testing.T) {
	svc := newTestService()

	p, err := svc.Get(context.Background(), "about")
	require.NoError(t, err)
	assert.Equal(t, "About Us", p.Title)
	assert.Equal(t, "<h1>About Us</h1>\n<p>Add your content here...</p>", p.Content)
	assert.Nil(t, p.LastModified)
}

func TestGet_UnknownPage(t *testing.T) {
	_, err := newTestService().Get(context.Background(), "pricing")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
}

func TestSaveThenGetAndList(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	saved, err := svc.Save(ctx, "about", &model.PageRequest{Title: "About AyurCare", Content: "<p>Since 1998</p>"})
	require.NoError(t, err)
	require.NotNil(t, saved.LastModified)

	got, err := svc.Get(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, "<p>Since 1998</p>", got.Content)

	_, err = svc.Save(ctx, "retreats", &model.PageRequest{Title: "Retreats", Content: "x"})
	require.NoError(t, err)

	pages, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, len(model.KnownPages)+1)
	assert.Equal(t, "home", pages[0].Slug)
	assert.Equal(t, "About AyurCare", pages[1].Title)
	assert.Equal(t, "retreats", pages[len(pages)-1].Slug)
}

func TestSave_RejectsBadSlug(t *testing.T) {
	_, err := newTestService().Save(context.Background(), "About Us", &model.PageRequest{Title: "x", Content: "y"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "slug")
}
