// Package postgres implements the storage interfaces on PostgreSQL. All
// counter and set mutations are single-statement atomic updates; uniqueness
// invariants live in the schema's unique indexes rather than application
// checks.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/exercise"
	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/session"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.GymStore = (*Store)(nil)
var _ storage.ExerciseStore = (*Store)(nil)
var _ storage.BadgeStore = (*Store)(nil)
var _ storage.ChallengeStore = (*Store)(nil)
var _ storage.ParticipationStore = (*Store)(nil)
var _ storage.InvitationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// translate maps driver errors to the storage sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return storage.ErrConflict
	}
	return err
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func fromNullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

// --- UserStore ---------------------------------------------------------------

const userColumns = `id, email, password_hash, first_name, last_name, role, active,
	total_score, badges, friends, gym_id, challenges_completed,
	total_calories_burned, streak_days, last_activity_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (user.User, error) {
	var u user.User
	var lastActivity sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.Active, &u.TotalScore, pq.Array(&u.Badges), pq.Array(&u.Friends),
		&u.GymID, &u.ChallengesCompleted, &u.TotalCaloriesBurned, &u.StreakDays,
		&lastActivity, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err)
	}
	u.LastActivityAt = fromNullTime(lastActivity)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Active,
		u.TotalScore, pq.Array(u.Badges), pq.Array(u.Friends), u.GymID,
		u.ChallengesCompleted, u.TotalCaloriesBurned, u.StreakDays,
		nullTime(u.LastActivityAt), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
			role = $6, active = $7, gym_id = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Active,
		u.GymID, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []interface{}
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += ` AND role = $` + itoa(len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += ` AND active = $` + itoa(len(args))
	}
	if filter.GymID != "" {
		args = append(args, filter.GymID)
		query += ` AND gym_id = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (storage.UserCounts, error) {
	var c storage.UserCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE active),
			COUNT(*) FILTER (WHERE NOT active),
			COUNT(*) FILTER (WHERE role = 'SUPER_ADMIN'),
			COUNT(*) FILTER (WHERE role = 'GYM_OWNER'),
			COUNT(*) FILTER (WHERE role = 'USER')
		FROM users
	`).Scan(&c.Total, &c.Active, &c.Inactive, &c.SuperAdmins, &c.GymOwners, &c.Regular)
	return c, translate(err)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) AddBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET badges = array_append(badges, $2), updated_at = $3
		WHERE id = $1 AND NOT ($2 = ANY(badges))
	`, userID, badgeID, time.Now().UTC())
	if err != nil {
		return false, translate(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the user is unknown or the badge is already owned.
		if _, err := s.GetUser(ctx, userID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) AddScore(ctx context.Context, userID string, points int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET total_score = total_score + $2, updated_at = $3 WHERE id = $1
	`, userID, points, time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) AddFriend(ctx context.Context, userID, friendID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET friends = array_append(friends, $2), updated_at = $3
		WHERE id = $1 AND NOT ($2 = ANY(friends))
	`, userID, friendID, time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetUser(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RemoveFriend(ctx context.Context, userID, friendID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET friends = array_remove(friends, $2), updated_at = $3 WHERE id = $1
	`, userID, friendID, time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementStats(ctx context.Context, userID string, delta user.StatsDelta) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET challenges_completed = challenges_completed + $2,
			total_calories_burned = total_calories_burned + $3,
			streak_days = streak_days + $4,
			last_activity_at = COALESCE($5, last_activity_at),
			updated_at = $6
		WHERE id = $1
	`, userID, delta.ChallengesCompleted, delta.TotalCaloriesBurned,
		delta.StreakDays, nullTime(delta.LastActivityAt), time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE active ORDER BY total_score DESC, created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- SessionStore ------------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)
	`, sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return session.Session{}, translate(err)
	}
	return sess, nil
}

func (s *Store) FindActiveSession(ctx context.Context, id string) (session.Session, error) {
	var sess session.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at FROM sessions
		WHERE id = $1 AND expires_at > $2
	`, id, time.Now().UTC()).Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return session.Session{}, translate(err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, translate(err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// --- GymStore ----------------------------------------------------------------

const gymColumns = `id, name, location, description, capacity, equipment, owner_id,
	status, approved_by, exercise_ids, created_at, updated_at`

func scanGym(row interface{ Scan(...interface{}) error }) (gym.Gym, error) {
	var g gym.Gym
	err := row.Scan(&g.ID, &g.Name, &g.Location, &g.Description, &g.Capacity,
		pq.Array(&g.Equipment), &g.OwnerID, &g.Status, &g.ApprovedBy,
		pq.Array(&g.ExerciseIDs), &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return gym.Gym{}, translate(err)
	}
	return g, nil
}

func (s *Store) CreateGym(ctx context.Context, g gym.Gym) (gym.Gym, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gyms (`+gymColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, g.ID, g.Name, g.Location, g.Description, g.Capacity, pq.Array(g.Equipment),
		g.OwnerID, g.Status, g.ApprovedBy, pq.Array(g.ExerciseIDs), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return gym.Gym{}, translate(err)
	}
	return g, nil
}

func (s *Store) UpdateGym(ctx context.Context, g gym.Gym) (gym.Gym, error) {
	g.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE gyms
		SET name = $2, location = $3, description = $4, capacity = $5, equipment = $6,
			status = $7, approved_by = $8, exercise_ids = $9, updated_at = $10
		WHERE id = $1
	`, g.ID, g.Name, g.Location, g.Description, g.Capacity, pq.Array(g.Equipment),
		g.Status, g.ApprovedBy, pq.Array(g.ExerciseIDs), g.UpdatedAt)
	if err != nil {
		return gym.Gym{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return gym.Gym{}, storage.ErrNotFound
	}
	return s.GetGym(ctx, g.ID)
}

func (s *Store) GetGym(ctx context.Context, id string) (gym.Gym, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id)
	return scanGym(row)
}

func (s *Store) GetGymByOwner(ctx context.Context, ownerID string) (gym.Gym, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gymColumns+` FROM gyms WHERE owner_id = $1 ORDER BY created_at LIMIT 1`, ownerID)
	return scanGym(row)
}

func (s *Store) ListGyms(ctx context.Context, status gym.Status) ([]gym.Gym, error) {
	query := `SELECT ` + gymColumns + ` FROM gyms`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []gym.Gym
	for rows.Next() {
		g, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) DeleteGym(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM gyms WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ExerciseStore -----------------------------------------------------------

const exerciseColumns = `id, name, description, targeted_muscles, created_by, created_at, updated_at`

func scanExercise(row interface{ Scan(...interface{}) error }) (exercise.TypeExercise, error) {
	var e exercise.TypeExercise
	err := row.Scan(&e.ID, &e.Name, &e.Description, pq.Array(&e.TargetedMuscles),
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return exercise.TypeExercise{}, translate(err)
	}
	return e, nil
}

func (s *Store) CreateExercise(ctx context.Context, e exercise.TypeExercise) (exercise.TypeExercise, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exercises (`+exerciseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Name, e.Description, pq.Array(e.TargetedMuscles), e.CreatedBy,
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return exercise.TypeExercise{}, translate(err)
	}
	return e, nil
}

func (s *Store) UpdateExercise(ctx context.Context, e exercise.TypeExercise) (exercise.TypeExercise, error) {
	e.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE exercises
		SET name = $2, description = $3, targeted_muscles = $4, updated_at = $5
		WHERE id = $1
	`, e.ID, e.Name, e.Description, pq.Array(e.TargetedMuscles), e.UpdatedAt)
	if err != nil {
		return exercise.TypeExercise{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return exercise.TypeExercise{}, storage.ErrNotFound
	}
	return s.GetExercise(ctx, e.ID)
}

func (s *Store) GetExercise(ctx context.Context, id string) (exercise.TypeExercise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
	return scanExercise(row)
}

func (s *Store) ListExercises(ctx context.Context) ([]exercise.TypeExercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []exercise.TypeExercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- BadgeStore --------------------------------------------------------------

const badgeColumns = `id, name, description, type, rules, points, active, created_by, created_at, updated_at`

func scanBadge(row interface{ Scan(...interface{}) error }) (badge.Badge, error) {
	var b badge.Badge
	var rules []byte
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Type, &rules, &b.Points,
		&b.Active, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return badge.Badge{}, translate(err)
	}
	if err := json.Unmarshal(rules, &b.Rules); err != nil {
		return badge.Badge{}, err
	}
	return b, nil
}

func (s *Store) CreateBadge(ctx context.Context, b badge.Badge) (badge.Badge, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	rules, err := json.Marshal(b.Rules)
	if err != nil {
		return badge.Badge{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO badges (`+badgeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, b.ID, b.Name, b.Description, b.Type, rules, b.Points, b.Active,
		b.CreatedBy, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return badge.Badge{}, translate(err)
	}
	return b, nil
}

func (s *Store) UpdateBadge(ctx context.Context, b badge.Badge) (badge.Badge, error) {
	b.UpdatedAt = time.Now().UTC()
	rules, err := json.Marshal(b.Rules)
	if err != nil {
		return badge.Badge{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE badges
		SET name = $2, description = $3, type = $4, rules = $5, points = $6,
			active = $7, updated_at = $8
		WHERE id = $1
	`, b.ID, b.Name, b.Description, b.Type, rules, b.Points, b.Active, b.UpdatedAt)
	if err != nil {
		return badge.Badge{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return badge.Badge{}, storage.ErrNotFound
	}
	return s.GetBadge(ctx, b.ID)
}

func (s *Store) GetBadge(ctx context.Context, id string) (badge.Badge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+badgeColumns+` FROM badges WHERE id = $1`, id)
	return scanBadge(row)
}

func (s *Store) ListBadges(ctx context.Context, activeOnly bool, badgeType badge.Type) ([]badge.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE 1=1`
	var args []interface{}
	if activeOnly {
		query += ` AND active`
	}
	if badgeType != "" {
		args = append(args, badgeType)
		query += ` AND type = $` + itoa(len(args))
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBadge(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM badges WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ChallengeStore ----------------------------------------------------------

const challengeColumns = `id, title, description, type, difficulty, status, exercises,
	goals, duration_days, max_participants, current_participants, start_date,
	end_date, created_by, gym_id, is_public, invite_only, team_based, rewards,
	estimated_calories, tags, created_at, updated_at`

func scanChallenge(row interface{ Scan(...interface{}) error }) (challenge.Challenge, error) {
	var c challenge.Challenge
	var exercises, goals []byte
	var rewards []byte
	var start, end sql.NullTime
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Type, &c.Difficulty, &c.Status,
		&exercises, &goals, &c.DurationDays, &c.MaxParticipants, &c.CurrentParticipants,
		&start, &end, &c.CreatedBy, &c.GymID, &c.IsPublic, &c.InviteOnly, &c.TeamBased,
		&rewards, &c.EstimatedCalories, pq.Array(&c.Tags), &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return challenge.Challenge{}, translate(err)
	}
	c.StartDate = fromNullTime(start)
	c.EndDate = fromNullTime(end)
	if err := json.Unmarshal(exercises, &c.Exercises); err != nil {
		return challenge.Challenge{}, err
	}
	if err := json.Unmarshal(goals, &c.Goals); err != nil {
		return challenge.Challenge{}, err
	}
	if len(rewards) > 0 {
		if err := json.Unmarshal(rewards, &c.Rewards); err != nil {
			return challenge.Challenge{}, err
		}
	}
	return c, nil
}

func challengeArgs(c challenge.Challenge) ([]interface{}, error) {
	exercises, err := json.Marshal(c.Exercises)
	if err != nil {
		return nil, err
	}
	goals, err := json.Marshal(c.Goals)
	if err != nil {
		return nil, err
	}
	var rewards interface{}
	if c.Rewards != nil {
		data, err := json.Marshal(c.Rewards)
		if err != nil {
			return nil, err
		}
		rewards = data
	}
	return []interface{}{
		c.ID, c.Title, c.Description, c.Type, c.Difficulty, c.Status, exercises,
		goals, c.DurationDays, c.MaxParticipants, c.CurrentParticipants,
		nullTime(c.StartDate), nullTime(c.EndDate), c.CreatedBy, c.GymID,
		c.IsPublic, c.InviteOnly, c.TeamBased, rewards, c.EstimatedCalories,
		pq.Array(c.Tags), c.CreatedAt, c.UpdatedAt,
	}, nil
}

func (s *Store) CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	args, err := challengeArgs(c)
	if err != nil {
		return challenge.Challenge{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)
	`, args...)
	if err != nil {
		return challenge.Challenge{}, translate(err)
	}
	return c, nil
}

func (s *Store) UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	c.UpdatedAt = time.Now().UTC()
	exercises, err := json.Marshal(c.Exercises)
	if err != nil {
		return challenge.Challenge{}, err
	}
	goals, err := json.Marshal(c.Goals)
	if err != nil {
		return challenge.Challenge{}, err
	}
	var rewards interface{}
	if c.Rewards != nil {
		data, err := json.Marshal(c.Rewards)
		if err != nil {
			return challenge.Challenge{}, err
		}
		rewards = data
	}
	// current_participants is deliberately absent: it only moves through
	// AddParticipants.
	result, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET title = $2, description = $3, type = $4, difficulty = $5, status = $6,
			exercises = $7, goals = $8, duration_days = $9, max_participants = $10,
			start_date = $11, end_date = $12, gym_id = $13, is_public = $14,
			invite_only = $15, team_based = $16, rewards = $17,
			estimated_calories = $18, tags = $19, updated_at = $20
		WHERE id = $1
	`, c.ID, c.Title, c.Description, c.Type, c.Difficulty, c.Status, exercises,
		goals, c.DurationDays, c.MaxParticipants, nullTime(c.StartDate),
		nullTime(c.EndDate), c.GymID, c.IsPublic, c.InviteOnly, c.TeamBased,
		rewards, c.EstimatedCalories, pq.Array(c.Tags), c.UpdatedAt)
	if err != nil {
		return challenge.Challenge{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return challenge.Challenge{}, storage.ErrNotFound
	}
	return s.GetChallenge(ctx, c.ID)
}

func (s *Store) GetChallenge(ctx context.Context, id string) (challenge.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	return scanChallenge(row)
}

func (s *Store) ListChallenges(ctx context.Context, filter storage.ChallengeFilter) ([]challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + itoa(len(args))
	}
	if filter.Difficulty != "" {
		args = append(args, filter.Difficulty)
		query += ` AND difficulty = $` + itoa(len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + itoa(len(args))
	}
	if filter.GymID != "" {
		args = append(args, filter.GymID)
		query += ` AND gym_id = $` + itoa(len(args))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		query += ` AND created_by = $` + itoa(len(args))
	}
	if filter.Public != nil {
		args = append(args, *filter.Public)
		query += ` AND is_public = $` + itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := itoa(len(args))
		query += ` AND (title ILIKE $` + n + ` OR description ILIKE $` + n +
			` OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $` + n + `))`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AddParticipants(ctx context.Context, id string, delta int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET current_participants = current_participants + $2, updated_at = $3
		WHERE id = $1
	`, id, delta, time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteChallenge(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ParticipationStore ------------------------------------------------------

const participationColumns = `id, challenge_id, user_id, status, progress,
	workout_sessions, joined_at, started_at, completed_at, total_workouts,
	total_duration, total_calories, personal_best, invited_by, team_id,
	badges_earned, points_earned, created_at, updated_at`

func scanParticipation(row interface{ Scan(...interface{}) error }) (participation.Participation, error) {
	var p participation.Participation
	var sessions, personalBest []byte
	var started, completed sql.NullTime
	err := row.Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.Status, &p.Progress,
		&sessions, &p.JoinedAt, &started, &completed, &p.TotalWorkouts,
		&p.TotalDuration, &p.TotalCalories, &personalBest, &p.InvitedBy, &p.TeamID,
		pq.Array(&p.BadgesEarned), &p.PointsEarned, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return participation.Participation{}, translate(err)
	}
	p.StartedAt = fromNullTime(started)
	p.CompletedAt = fromNullTime(completed)
	if err := json.Unmarshal(sessions, &p.WorkoutSessions); err != nil {
		return participation.Participation{}, err
	}
	if len(personalBest) > 0 {
		if err := json.Unmarshal(personalBest, &p.PersonalBest); err != nil {
			return participation.Participation{}, err
		}
	}
	return p, nil
}

func (s *Store) CreateParticipation(ctx context.Context, p participation.Participation) (participation.Participation, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.Status == "" {
		p.Status = participation.StatusJoined
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	sessions, err := json.Marshal(emptySessions(p.WorkoutSessions))
	if err != nil {
		return participation.Participation{}, err
	}
	var personalBest interface{}
	if p.PersonalBest != nil {
		data, err := json.Marshal(p.PersonalBest)
		if err != nil {
			return participation.Participation{}, err
		}
		personalBest = data
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO participations (`+participationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19)
	`, p.ID, p.ChallengeID, p.UserID, p.Status, p.Progress, sessions, p.JoinedAt,
		nullTime(p.StartedAt), nullTime(p.CompletedAt), p.TotalWorkouts,
		p.TotalDuration, p.TotalCalories, personalBest, p.InvitedBy, p.TeamID,
		pq.Array(p.BadgesEarned), p.PointsEarned, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return participation.Participation{}, translate(err)
	}
	return p, nil
}

func (s *Store) UpdateParticipation(ctx context.Context, p participation.Participation) (participation.Participation, error) {
	p.UpdatedAt = time.Now().UTC()
	var personalBest interface{}
	if p.PersonalBest != nil {
		data, err := json.Marshal(p.PersonalBest)
		if err != nil {
			return participation.Participation{}, err
		}
		personalBest = data
	}
	// Workout sessions and cumulative totals only move through
	// AppendWorkoutSession.
	result, err := s.db.ExecContext(ctx, `
		UPDATE participations
		SET status = $2, progress = $3, started_at = $4, completed_at = $5,
			personal_best = $6, badges_earned = $7, points_earned = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Status, p.Progress, nullTime(p.StartedAt), nullTime(p.CompletedAt),
		personalBest, pq.Array(p.BadgesEarned), p.PointsEarned, p.UpdatedAt)
	if err != nil {
		return participation.Participation{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return participation.Participation{}, storage.ErrNotFound
	}
	return s.GetParticipation(ctx, p.ID)
}

func (s *Store) GetParticipation(ctx context.Context, id string) (participation.Participation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+participationColumns+` FROM participations WHERE id = $1`, id)
	return scanParticipation(row)
}

func (s *Store) GetUserChallengeParticipation(ctx context.Context, userID, challengeID string) (participation.Participation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+participationColumns+` FROM participations
		WHERE user_id = $1 AND challenge_id = $2
	`, userID, challengeID)
	return scanParticipation(row)
}

func (s *Store) ListUserParticipations(ctx context.Context, userID string) ([]participation.Participation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+participationColumns+` FROM participations
		WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []participation.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) AppendWorkoutSession(ctx context.Context, id string, ws participation.WorkoutSession) (participation.Participation, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return participation.Participation{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE participations
		SET workout_sessions = workout_sessions || $2::jsonb,
			total_workouts = total_workouts + 1,
			total_duration = total_duration + $3,
			total_calories = total_calories + $4,
			updated_at = $5
		WHERE id = $1
	`, id, data, ws.TotalDuration, ws.TotalCalories, time.Now().UTC())
	if err != nil {
		return participation.Participation{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return participation.Participation{}, storage.ErrNotFound
	}
	return s.GetParticipation(ctx, id)
}

func (s *Store) Leaderboard(ctx context.Context, challengeID string, limit int) ([]participation.Participation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+participationColumns+` FROM participations
		WHERE challenge_id = $1 AND status <> 'ABANDONED'
		ORDER BY progress DESC, total_calories DESC
		LIMIT $2
	`, challengeID, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []participation.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteParticipation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM participations WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- InvitationStore ---------------------------------------------------------

const invitationColumns = `id, challenge_id, from_user_id, to_user_id, type, status,
	message, expires_at, created_at, updated_at`

func scanInvitation(row interface{ Scan(...interface{}) error }) (invitation.Invitation, error) {
	var inv invitation.Invitation
	err := row.Scan(&inv.ID, &inv.ChallengeID, &inv.FromUserID, &inv.ToUserID,
		&inv.Type, &inv.Status, &inv.Message, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return invitation.Invitation{}, translate(err)
	}
	return inv, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inv.Status == "" {
		inv.Status = invitation.StatusPending
	}
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = now.Add(invitation.DefaultTTL)
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, inv.ID, inv.ChallengeID, inv.FromUserID, inv.ToUserID, inv.Type, inv.Status,
		inv.Message, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return invitation.Invitation{}, translate(err)
	}
	return inv, nil
}

func (s *Store) UpdateInvitation(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	inv.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = $2, message = $3, expires_at = $4, updated_at = $5
		WHERE id = $1
	`, inv.ID, inv.Status, inv.Message, inv.ExpiresAt, inv.UpdatedAt)
	if err != nil {
		return invitation.Invitation{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return invitation.Invitation{}, storage.ErrNotFound
	}
	return s.GetInvitation(ctx, inv.ID)
}

func (s *Store) GetInvitation(ctx context.Context, id string) (invitation.Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	return scanInvitation(row)
}

func (s *Store) FindPendingInvitation(ctx context.Context, challengeID, fromUserID, toUserID string) (invitation.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE challenge_id = $1 AND from_user_id = $2 AND to_user_id = $3 AND status = 'PENDING'
	`, challengeID, fromUserID, toUserID)
	return scanInvitation(row)
}

func (s *Store) ListReceivedInvitations(ctx context.Context, userID string, status invitation.Status) ([]invitation.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE to_user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $2`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []invitation.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) ListSentInvitations(ctx context.Context, userID string) ([]invitation.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE from_user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []invitation.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) ExpirePendingInvitations(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'PENDING' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, translate(err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// --- helpers -----------------------------------------------------------------

func emptySessions(in []participation.WorkoutSession) []participation.WorkoutSession {
	if in == nil {
		return []participation.WorkoutSession{}
	}
	return in
}

func itoa(n int) string { return strconv.Itoa(n) }
