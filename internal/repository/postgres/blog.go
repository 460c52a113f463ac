package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type blogRepository struct {
	BaseRepository
}

func NewBlogRepository(base BaseRepository) repository.BlogRepository {
	return &blogRepository{base}
}

const blogColumns = `id, title, content, excerpt, slug, author, category, tags, published, created_at, updated_at`

func (r *blogRepository) Create(ctx context.Context, post *model.BlogPost) error {
	query := `
		INSERT INTO blog_posts (id, title, content, excerpt, slug, author, category, tags, published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Excerpt,
		post.Slug,
		post.Author,
		post.Category,
		post.Tags,
		post.Published,
		post.CreatedAt,
	)
	if err != nil {
		return wrap("create blog post", err)
	}
	return nil
}

func (r *blogRepository) Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1`

	var post model.BlogPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, wrap("get blog post", err)
	}
	return &post, nil
}

func (r *blogRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE slug = $1`
	if publishedOnly {
		query += " AND published = TRUE"
	}

	var post model.BlogPost
	if err := r.db.GetContext(ctx, &post, query, slug); err != nil {
		return nil, wrap("get blog post by slug", err)
	}
	return &post, nil
}

func (r *blogRepository) Update(ctx context.Context, post *model.BlogPost) error {
	query := `
		UPDATE blog_posts
		SET title = $1, content = $2, excerpt = $3, slug = $4, author = $5,
			category = $6, tags = $7, published = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Content,
		post.Excerpt,
		post.Slug,
		post.Author,
		post.Category,
		post.Tags,
		post.Published,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return wrap("update blog post", err)
	}
	return expectOne(result)
}

func (r *blogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return wrap("delete blog post", err)
	}
	return expectOne(result)
}

func (r *blogRepository) List(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE 1=1`
	args := []interface{}{}

	if filter.PublishedOnly {
		query += " AND published = TRUE"
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}

	query += " ORDER BY created_at DESC"

	posts := []*model.BlogPost{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, wrap("list blog posts", err)
	}
	return posts, nil
}

func (r *blogRepository) TogglePublished(ctx context.Context, id uuid.UUID, at time.Time) (*model.BlogPost, error) {
	query := `
		UPDATE blog_posts SET published = NOT published, updated_at = $1
		WHERE id = $2
		RETURNING ` + blogColumns

	var post model.BlogPost
	if err := r.db.GetContext(ctx, &post, query, at, id); err != nil {
		return nil, wrap("toggle blog post published", err)
	}
	return &post, nil
}

func (r *blogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blog_posts`); err != nil {
		return 0, wrap("count blog posts", err)
	}
	return n, nil
}
