package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/anirudhnegi03/tarunet/internal/auth"
	"github.com/anirudhnegi03/tarunet/internal/models"
)

const userColumns = `id, email, full_name, bio, profile_pic,
	native_language, learning_language, location, is_onboarded, created_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Bio, &u.ProfilePic,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded, &u.CreatedAt,
	)
}

// CreateUser hashes the password and inserts the user. A nil ID is replaced
// with a fresh random UUID. The stored hash replaces the plaintext on the
// passed-in struct.
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, email, password, full_name, profile_pic)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING created_at`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			user.ID, user.Email, user.Password, user.FullName, user.ProfilePic,
		).Scan(&user.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	err := scanUser(DB.QueryRow(ctx, q, id), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `SELECT ` + userColumns + `, password FROM users WHERE email=$1`
	err := DB.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Bio, &u.ProfilePic,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded, &u.CreatedAt,
		&u.Password,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthenticateUser verifies the email/password pair and returns the user.
func AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.Password)
	if err != nil || !match {
		return nil, fmt.Errorf("invalid credentials")
	}

	user.Password = ""
	return user, nil
}

// CompleteOnboarding fills in the profile fields and flips the onboarding flag.
func CompleteOnboarding(ctx context.Context, user *models.User) error {
	q := `
		UPDATE users
		SET full_name=$1, bio=$2, native_language=$3, learning_language=$4,
		    location=$5, is_onboarded=TRUE
		WHERE id=$6
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q,
			user.FullName, user.Bio, user.NativeLanguage, user.LearningLanguage,
			user.Location, user.ID,
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		user.IsOnboarded = true
		return nil
	})
}

// ListRecommended returns onboarded users excluding the given user and anyone
// already in their friends set. Users with an in-flight pending request are
// not filtered out here.
func ListRecommended(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.id <> $1
		  AND u.is_onboarded
		  AND NOT EXISTS (
			SELECT 1 FROM friendships f
			WHERE f.user_a = LEAST($1, u.id) AND f.user_b = GREATEST($1, u.id)
		  )
		ORDER BY u.created_at
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListFriends returns reduced profiles for every friend of the given user.
func ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	q := `
		SELECT u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_a = $1 THEN f.user_b ELSE f.user_a END
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY u.full_name
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.ProfilePic, &s.NativeLanguage, &s.LearningLanguage); err != nil {
			return nil, err
		}
		friends = append(friends, s)
	}
	return friends, rows.Err()
}
