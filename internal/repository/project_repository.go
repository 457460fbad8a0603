package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scuolahub/finance-service/internal/model"
)

// ProjectFilter narrows project listings. Query matches title, CUP, CIG and
// program case-insensitively; the other fields are exact.
type ProjectFilter struct {
	Query    string
	Program  string
	Status   string
	SchoolID *uuid.UUID
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	id,
	school_id,
	title,
	program,
	status,
	start_date,
	end_date,
	budget,
	spent,
	cup,
	cig
`

func (r *ProjectRepository) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (r *ProjectRepository) GetSchool(ctx context.Context, id uuid.UUID) (*model.School, error) {
	var school model.School
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, code
		FROM schools
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&school).Error
	if err != nil {
		return nil, err
	}
	if school.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &school, nil
}

func (r *ProjectRepository) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query, args := buildProjectQuery(`
		SELECT `+projectColumns+`
		FROM projects
	`, filter)
	query += " ORDER BY title ASC, id ASC"

	var projects []model.Project
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectTotals sums budget and cached spend over the filtered projects.
func (r *ProjectRepository) ProjectTotals(ctx context.Context, filter ProjectFilter) (model.ProjectTotals, error) {
	query, args := buildProjectQuery(`
		SELECT
			COALESCE(SUM(budget), 0) AS budget,
			COALESCE(SUM(spent), 0) AS spent
		FROM projects
	`, filter)

	var totals model.ProjectTotals
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&totals).Error; err != nil {
		return model.ProjectTotals{}, err
	}
	return totals, nil
}

func buildProjectQuery(base string, filter ProjectFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		clauses = append(clauses, `(title ILIKE ? OR cup ILIKE ? OR cig ILIKE ? OR program ILIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if filter.Program != "" {
		clauses = append(clauses, `UPPER(program) = UPPER(?)`)
		args = append(args, filter.Program)
	}
	if filter.Status != "" {
		clauses = append(clauses, `UPPER(status) = UPPER(?)`)
		args = append(args, filter.Status)
	}
	if filter.SchoolID != nil {
		clauses = append(clauses, `school_id = ?`)
		args = append(args, *filter.SchoolID)
	}

	for i, clause := range clauses {
		if i == 0 {
			base += " WHERE " + clause
			continue
		}
		base += " AND " + clause
	}
	return base, args
}
