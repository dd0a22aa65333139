package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

// UserRepository persists user accounts and teacher course assignments.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns a user by its unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts the user and its course assignments in one transaction.
// A duplicate username surfaces as a unique violation.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO users (username, password_hash, role)
        VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	row := tx.QueryRowxContext(ctx, insert, user.Username, user.PasswordHash, user.Role)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if err := replaceUserCourses(ctx, tx, user.ID, user.CourseIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persists user fields and rewrites the course assignment set.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update user: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE users SET username = $2, password_hash = $3, role = $4, updated_at = NOW() WHERE id = $1`
	res, err := tx.ExecContext(ctx, update, user.ID, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if err := replaceUserCourses(ctx, tx, user.ID, user.CourseIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the user together with its course assignments.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCourseIDs returns the course assignments for one user.
func (r *UserRepository) ListCourseIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	const query = `SELECT course_id FROM user_courses WHERE user_id = $1 ORDER BY course_id`
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list user courses: %w", err)
	}
	return ids, nil
}

func replaceUserCourses(ctx context.Context, tx *sqlx.Tx, userID int64, courseIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_courses WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear user courses: %w", err)
	}
	for _, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_courses (user_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, courseID); err != nil {
			return fmt.Errorf("assign user course: %w", err)
		}
	}
	return nil
}
