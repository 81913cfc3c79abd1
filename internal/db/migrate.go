package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// RunMigrations applies the schema. Statements are idempotent so the
// server can run them on every startup.
func RunMigrations(db *sqlx.DB) error {
	schema := `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    full_name TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    sex CHAR(1) CHECK (sex IN ('M', 'F')),
    height_cm INTEGER CHECK (height_cm > 0),
    weight_kg NUMERIC(4,1) CHECK (weight_kg > 0),
    date_of_birth DATE,
    activity_level CHAR(2) CHECK (activity_level IN ('SD', 'LA', 'MA', 'VA', 'EA')),
    goal_weight_kg NUMERIC(4,1),
    goal CHAR(2) CHECK (goal IN ('LW', 'MW', 'GW')),
    calculation_method CHAR(3) CHECK (calculation_method IN ('REC', 'PER', 'GRA', 'CUS')),
    energy INTEGER NOT NULL DEFAULT 2000,
    fat NUMERIC(4,1) NOT NULL DEFAULT 70,
    saturates NUMERIC(4,1) NOT NULL DEFAULT 20,
    carbohydrate NUMERIC(4,1) NOT NULL DEFAULT 260,
    sugars NUMERIC(4,1) NOT NULL DEFAULT 90,
    fibre NUMERIC(4,1) NOT NULL DEFAULT 30,
    protein NUMERIC(4,1) NOT NULL DEFAULT 50,
    salt NUMERIC(5,2) NOT NULL DEFAULT 6,
    protein_pct INTEGER,
    carbohydrate_pct INTEGER,
    fat_pct INTEGER,
    calories_per_kg INTEGER,
    protein_per_kg NUMERIC(4,2),
    carbohydrate_per_kg NUMERIC(4,2),
    fat_per_kg NUMERIC(4,2),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS brands (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name TEXT UNIQUE NOT NULL,
    description TEXT,
    created_by UUID REFERENCES users(id) ON DELETE SET NULL,
    updated_by UUID REFERENCES users(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name TEXT UNIQUE NOT NULL,
    description TEXT,
    created_by UUID REFERENCES users(id) ON DELETE SET NULL,
    updated_by UUID REFERENCES users(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS foods (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name TEXT NOT NULL,
    brand_id UUID NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
    category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    serving_size INTEGER NOT NULL CHECK (serving_size > 0),
    serving_unit TEXT NOT NULL CHECK (serving_unit IN ('g', 'ml', 'srv')),
    description TEXT,
    energy INTEGER NOT NULL CHECK (energy >= 0),
    fat NUMERIC(4,1) NOT NULL CHECK (fat >= 0),
    saturates NUMERIC(4,1) NOT NULL CHECK (saturates >= 0),
    carbohydrate NUMERIC(4,1) NOT NULL CHECK (carbohydrate >= 0),
    sugars NUMERIC(4,1) NOT NULL CHECK (sugars >= 0),
    fibre NUMERIC(4,1) NOT NULL CHECK (fibre >= 0),
    protein NUMERIC(4,1) NOT NULL CHECK (protein >= 0),
    salt NUMERIC(5,2) NOT NULL CHECK (salt >= 0),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_by UUID REFERENCES users(id) ON DELETE SET NULL,
    updated_by UUID REFERENCES users(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (name, brand_id)
);

CREATE TABLE IF NOT EXISTS diary_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL DEFAULT CURRENT_DATE,
    meal INTEGER NOT NULL CHECK (meal BETWEEN 1 AND 6),
    food_id UUID NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
    quantity NUMERIC(4,2) NOT NULL CHECK (quantity > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_diary_entries_user_date ON diary_entries (user_id, date);

CREATE TABLE IF NOT EXISTS meals (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS meal_items (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    meal_id UUID NOT NULL REFERENCES meals(id) ON DELETE CASCADE,
    food_id UUID NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
    quantity NUMERIC(4,2) NOT NULL CHECK (quantity > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS progress_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL DEFAULT CURRENT_DATE,
    weight_kg NUMERIC(4,1),
    notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, date)
);
`
	_, err := db.ExecContext(context.Background(), schema)
	return err
}
