package postgres

import (
	"context"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type pageRepository struct {
	BaseRepository
}

func NewPageRepository(base BaseRepository) repository.PageRepository {
	return &pageRepository{base}
}

const pageColumns = `slug, title, content, meta_description, last_modified`

func (r *pageRepository) Get(ctx context.Context, slug string) (*model.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE slug = $1`

	var page model.Page
	if err := r.db.GetContext(ctx, &page, query, slug); err != nil {
		return nil, wrap("get page", err)
	}
	return &page, nil
}

func (r *pageRepository) List(ctx context.Context) ([]*model.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY slug`

	pages := []*model.Page{}
	if err := r.db.SelectContext(ctx, &pages, query); err != nil {
		return nil, wrap("list pages", err)
	}
	return pages, nil
}

func (r *pageRepository) Upsert(ctx context.Context, page *model.Page) error {
	query := `
		INSERT INTO pages (slug, title, content, meta_description, last_modified)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE
		SET title = EXCLUDED.title,
			content = EXCLUDED.content,
			meta_description = EXCLUDED.meta_description,
			last_modified = EXCLUDED.last_modified
	`
	_, err := r.db.ExecContext(ctx, query,
		page.Slug,
		page.Title,
		page.Content,
		page.MetaDescription,
		page.LastModified,
	)
	if err != nil {
		return wrap("upsert page", err)
	}
	return nil
}
