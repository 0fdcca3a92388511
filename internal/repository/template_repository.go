package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// TemplateRepository manages ticket template persistence.
type TemplateRepository interface {
	Upsert(ctx context.Context, tmpl *domain.Template) error
	GetByID(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Delete(ctx context.Context, id string) error
}

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository builds the Postgres repository.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) Upsert(ctx context.Context, tmpl *domain.Template) error {
	const query = `
        INSERT INTO ticket_templates (id, name, category, subcategory, priority, title, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO UPDATE SET
            name=EXCLUDED.name, category=EXCLUDED.category, subcategory=EXCLUDED.subcategory,
            priority=EXCLUDED.priority, title=EXCLUDED.title, description=EXCLUDED.description
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.Category,
		tmpl.SubcategoryName,
		tmpl.Priority,
		tmpl.Title,
		tmpl.Description,
	).Scan(&tmpl.CreatedAt)
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	const query = `
        SELECT id, name, category, subcategory, priority, title, description, created_at
        FROM ticket_templates WHERE id=$1`
	var tmpl domain.Template
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.Category,
		&tmpl.SubcategoryName,
		&tmpl.Priority,
		&tmpl.Title,
		&tmpl.Description,
		&tmpl.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("template", map[string]any{"id": id})
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) List(ctx context.Context) ([]domain.Template, error) {
	const query = `
        SELECT id, name, category, subcategory, priority, title, description, created_at
        FROM ticket_templates ORDER BY name, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Template
	for rows.Next() {
		var tmpl domain.Template
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Category, &tmpl.SubcategoryName, &tmpl.Priority, &tmpl.Title, &tmpl.Description, &tmpl.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, tmpl)
	}
	return result, rows.Err()
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("template", map[string]any{"id": id})
	}
	return nil
}

type memoryTemplateRepository struct {
	mu        sync.RWMutex
	now       func() time.Time
	templates map[string]domain.Template
}

// NewMemoryTemplateRepository builds an in-process repository holding seed.
func NewMemoryTemplateRepository(seed []domain.Template) TemplateRepository {
	r := &memoryTemplateRepository{now: time.Now, templates: make(map[string]domain.Template, len(seed))}
	for _, tmpl := range seed {
		if tmpl.CreatedAt.IsZero() {
			tmpl.CreatedAt = r.now()
		}
		r.templates[tmpl.ID] = tmpl
	}
	return r
}

func (r *memoryTemplateRepository) Upsert(ctx context.Context, tmpl *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.templates[tmpl.ID]; ok {
		tmpl.CreatedAt = existing.CreatedAt
	} else {
		tmpl.CreatedAt = r.now()
	}
	r.templates[tmpl.ID] = *tmpl
	return nil
}

func (r *memoryTemplateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, apperrors.NewNotFound("template", map[string]any{"id": id})
	}
	return &tmpl, nil
}

func (r *memoryTemplateRepository) List(ctx context.Context) ([]domain.Template, error) {
	r.mu.RLock()
	result := make([]domain.Template, 0, len(r.templates))
	for _, tmpl := range r.templates {
		result = append(result, tmpl)
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *memoryTemplateRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return apperrors.NewNotFound("template", map[string]any{"id": id})
	}
	delete(r.templates, id)
	return nil
}

// SeedTemplates inserts templates that do not exist yet.
func SeedTemplates(ctx context.Context, repo TemplateRepository, templates []domain.Template) (int, error) {
	seeded := 0
	for _, tmpl := range templates {
		_, err := repo.GetByID(ctx, tmpl.ID)
		if err == nil {
			continue
		}
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			return seeded, err
		}
		t := tmpl
		if err := repo.Upsert(ctx, &t); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
