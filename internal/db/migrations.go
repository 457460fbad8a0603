package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'project_program') THEN
			CREATE TYPE project_program AS ENUM ('PNRR', 'FESR', 'FSE', 'ERASMUS', 'ALTRO');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'project_status') THEN
			CREATE TYPE project_status AS ENUM ('DRAFT', 'ACTIVE', 'CLOSED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'expense_category') THEN
			CREATE TYPE expense_category AS ENUM ('MATERIALS', 'SERVICES', 'TRAINING', 'OTHER');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'limit_base') THEN
			CREATE TYPE limit_base AS ENUM ('BUDGET', 'SPENT', 'REMAINING');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS schools (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		code VARCHAR(32)
	);`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		school_id UUID REFERENCES schools(id) ON DELETE SET NULL,
		title VARCHAR(255) NOT NULL,
		program project_program NOT NULL DEFAULT 'PNRR',
		status project_status NOT NULL DEFAULT 'ACTIVE',
		start_date DATE,
		end_date DATE,
		budget NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (budget >= 0),
		spent NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (spent >= 0),
		cup VARCHAR(32),
		cig VARCHAR(32)
	);`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		date DATE NOT NULL DEFAULT CURRENT_DATE,
		vendor VARCHAR(255),
		category expense_category NOT NULL DEFAULT 'OTHER',
		amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (amount >= 0),
		document VARCHAR(255),
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS spending_limits (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		category expense_category NOT NULL,
		base limit_base NOT NULL DEFAULT 'BUDGET',
		percentage NUMERIC(6,2) NOT NULL DEFAULT 0 CHECK (percentage >= 0 AND percentage <= 100),
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_spending_limit_project_category_base
		ON spending_limits (project_id, category, base);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_school_id ON projects (school_id) WHERE school_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_project_id ON expenses (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_project_date ON expenses (project_id, date DESC, id DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_spending_limits_project_id ON spending_limits (project_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
