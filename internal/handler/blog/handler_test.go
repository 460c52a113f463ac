package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/internal/model"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
)

type fakeBlog struct {
	posts []*model.BlogPost
}

func (f *fakeBlog) ListPublished(_ context.Context, category string) ([]*model.BlogPost, error) {
	out := []*model.BlogPost{}
	for _, p := range f.posts {
		if p.Published && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBlog) GetPublished(_ context.Context, slug string) (*model.BlogPost, error) {
	for _, p := range f.posts {
		if p.Slug == slug && p.Published {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("blog post", nil)
}

func (f *fakeBlog) ListAll(context.Context) ([]*model.BlogPost, error) { return f.posts, nil }

func (f *fakeBlog) Get(_ context.Context, id uuid.UUID) (*model.BlogPost, error) {
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("blog post", nil)
}

func (f *fakeBlog) Create(_ context.Context, req *model.BlogPostRequest) (*model.BlogPost, error) {
	p := &model.BlogPost{Title: req.Title, Slug: model.Slugify(req.Title), Category: req.Category, Tags: model.NormalizeTags(req.Tags)}
	p.ID = uuid.New()
	f.posts = append(f.posts, p)
	return p, nil
}

func (f *fakeBlog) Update(ctx context.Context, id uuid.UUID, req *model.BlogPostRequest) (*model.BlogPost, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title = req.Title
	return p, nil
}

func (f *fakeBlog) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := f.Get(ctx, id)
	return err
}

func (f *fakeBlog) TogglePublished(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Published = !p.Published
	return p, nil
}

func request(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBlogPublishFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeBlog{}
	h := NewHandler(svc)
	r := gin.New()
	h.RegisterPublicRoutes(r.Group(""))
	h.RegisterAdminRoutes(r.Group("/admin"))

	w := request(r, http.MethodPost, "/admin/blog", `{"title":"Winter Vata Care","category":"seasonal","tags":"vata, winter ,"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"tags":["vata","winter"]`)
	id := svc.posts[0].ID.String()

	assert.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/blog/winter-vata-care", "").Code)

	assert.Equal(t, http.StatusOK, request(r, http.MethodPatch, "/admin/blog/"+id+"/published", "").Code)
	w = request(r, http.MethodGet, "/blog/winter-vata-care", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Winter Vata Care")

	w = request(r, http.MethodGet, "/blog?category=recipes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Winter Vata Care")

	assert.Equal(t, http.StatusBadRequest, request(r, http.MethodDelete, "/admin/blog/"+id, "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodDelete, "/admin/blog/"+id+"?confirm=true", "").Code)
}
