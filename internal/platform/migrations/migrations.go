// Package migrations creates and evolves the PostgreSQL schema. Statements
// are idempotent so Apply can run at every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		total_score INTEGER NOT NULL DEFAULT 0,
		badges TEXT[] NOT NULL DEFAULT '{}',
		friends TEXT[] NOT NULL DEFAULT '{}',
		gym_id TEXT NOT NULL DEFAULT '',
		challenges_completed INTEGER NOT NULL DEFAULT 0,
		total_calories_burned INTEGER NOT NULL DEFAULT 0,
		streak_days INTEGER NOT NULL DEFAULT 0,
		last_activity_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gyms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		capacity INTEGER NOT NULL DEFAULT 0,
		equipment TEXT[] NOT NULL DEFAULT '{}',
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		approved_by TEXT NOT NULL DEFAULT '',
		exercise_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS exercises (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		targeted_muscles TEXT[] NOT NULL DEFAULT '{}',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS exercises_name_key ON exercises (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS badges (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		rules JSONB NOT NULL DEFAULT '[]',
		points INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS badges_name_key ON badges (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'INDIVIDUAL',
		difficulty TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'DRAFT',
		exercises JSONB NOT NULL DEFAULT '[]',
		goals JSONB NOT NULL DEFAULT '[]',
		duration_days INTEGER NOT NULL DEFAULT 0,
		max_participants INTEGER NOT NULL DEFAULT 0,
		current_participants INTEGER NOT NULL DEFAULT 0,
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		created_by TEXT NOT NULL,
		gym_id TEXT NOT NULL DEFAULT '',
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		invite_only BOOLEAN NOT NULL DEFAULT FALSE,
		team_based BOOLEAN NOT NULL DEFAULT FALSE,
		rewards JSONB,
		estimated_calories INTEGER NOT NULL DEFAULT 0,
		tags TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS participations (
		id TEXT PRIMARY KEY,
		challenge_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'JOINED',
		progress INTEGER NOT NULL DEFAULT 0,
		workout_sessions JSONB NOT NULL DEFAULT '[]',
		joined_at TIMESTAMPTZ NOT NULL,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		total_workouts INTEGER NOT NULL DEFAULT 0,
		total_duration INTEGER NOT NULL DEFAULT 0,
		total_calories INTEGER NOT NULL DEFAULT 0,
		personal_best JSONB,
		invited_by TEXT NOT NULL DEFAULT '',
		team_id TEXT NOT NULL DEFAULT '',
		badges_earned TEXT[] NOT NULL DEFAULT '{}',
		points_earned INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	// One participation per (user, challenge) pair. Concurrent joins race to
	// this index and the loser gets a handled conflict.
	`CREATE UNIQUE INDEX IF NOT EXISTS participations_user_challenge_key
		ON participations (user_id, challenge_id)`,
	`CREATE TABLE IF NOT EXISTS invitations (
		id TEXT PRIMARY KEY,
		challenge_id TEXT NOT NULL,
		from_user_id TEXT NOT NULL,
		to_user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		message TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	// At most one PENDING invitation per (challenge, sender, recipient).
	`CREATE UNIQUE INDEX IF NOT EXISTS invitations_pending_triple_key
		ON invitations (challenge_id, from_user_id, to_user_id)
		WHERE status = 'PENDING'`,
}

// Count returns how many statements Apply executes.
func Count() int { return len(statements) }

// Apply runs every migration statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
