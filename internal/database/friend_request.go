package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/anirudhnegi03/tarunet/internal/models"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on pending request pairs.
const uniqueViolation = "23505"

// CreateFriendRequest inserts a pending request from sender to recipient.
//
// The existence pre-checks give friendly errors; the partial unique index on
// the unordered pair is what actually prevents duplicates when two sends race.
func CreateFriendRequest(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error) {
	req := models.FriendRequest{
		Sender:    sender,
		Recipient: recipient,
		Status:    models.FriendRequestPending,
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}
	req.ID = id

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, recipient,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}

		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM friendships WHERE user_a=LEAST($1,$2) AND user_b=GREATEST($1,$2))`,
			sender, recipient,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrAlreadyFriends
		}

		// Accepted rows are deliberately not considered here; only an
		// in-flight pending request blocks a new one.
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM friend_requests
				WHERE status='pending'
				  AND ((sender=$1 AND recipient=$2) OR (sender=$2 AND recipient=$1))
			)`,
			sender, recipient,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRequest
		}

		return tx.QueryRow(ctx,
			`INSERT INTO friend_requests (id, sender, recipient, status)
			 VALUES ($1, $2, $3, 'pending')
			 RETURNING created_at`,
			req.ID, sender, recipient,
		).Scan(&req.CreatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return &req, nil
}

// AcceptFriendRequest marks the request accepted and records the friendship.
// The status update and the friendship insert commit together or not at all.
// Returns the sender's id so callers can notify them.
func AcceptFriendRequest(ctx context.Context, userID, requestID uuid.UUID) (uuid.UUID, error) {
	var sender uuid.UUID
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var recipient uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT sender, recipient FROM friend_requests WHERE id=$1 FOR UPDATE`,
			requestID,
		).Scan(&sender, &recipient)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}
		if recipient != userID {
			return ErrNotRecipient
		}

		if _, err := tx.Exec(ctx,
			`UPDATE friend_requests SET status='accepted' WHERE id=$1`,
			requestID,
		); err != nil {
			return err
		}

		// Set semantics: re-accepting is a no-op on the friendship row.
		_, err = tx.Exec(ctx,
			`INSERT INTO friendships (user_a, user_b)
			 VALUES (LEAST($1,$2), GREATEST($1,$2))
			 ON CONFLICT DO NOTHING`,
			sender, recipient,
		)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return sender, nil
}

// RejectFriendRequest deletes a pending request addressed to the user and
// returns the rejected sender's id.
func RejectFriendRequest(ctx context.Context, userID, requestID uuid.UUID) (uuid.UUID, error) {
	var sender uuid.UUID
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var recipient uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT sender, recipient FROM friend_requests WHERE id=$1 FOR UPDATE`,
			requestID,
		).Scan(&sender, &recipient)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}
		if recipient != userID {
			return ErrNotRecipient
		}

		_, err = tx.Exec(ctx, `DELETE FROM friend_requests WHERE id=$1`, requestID)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return sender, nil
}

// FriendRequestLists returns pending requests addressed to the user plus
// accepted requests where the user is either party.
func FriendRequestLists(ctx context.Context, userID uuid.UUID) (*models.FriendRequestLists, error) {
	lists := models.FriendRequestLists{
		IncomingReqs: []models.IncomingFriendRequest{},
		AcceptedReqs: []models.AcceptedFriendRequest{},
	}

	rows, err := DB.Query(ctx, `
		SELECT r.id, r.status, r.created_at,
		       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM friend_requests r
		JOIN users u ON u.id = r.sender
		WHERE r.recipient = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var in models.IncomingFriendRequest
		if err := rows.Scan(
			&in.ID, &in.Status, &in.CreatedAt,
			&in.Sender.ID, &in.Sender.FullName, &in.Sender.ProfilePic,
			&in.Sender.NativeLanguage, &in.Sender.LearningLanguage,
		); err != nil {
			return nil, err
		}
		lists.IncomingReqs = append(lists.IncomingReqs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = DB.Query(ctx, `
		SELECT r.id, r.status,
		       s.id, s.full_name, s.profile_pic,
		       t.id, t.full_name, t.profile_pic
		FROM friend_requests r
		JOIN users s ON s.id = r.sender
		JOIN users t ON t.id = r.recipient
		WHERE (r.recipient = $1 OR r.sender = $1) AND r.status = 'accepted'
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var acc models.AcceptedFriendRequest
		if err := rows.Scan(
			&acc.ID, &acc.Status,
			&acc.Sender.ID, &acc.Sender.FullName, &acc.Sender.ProfilePic,
			&acc.Recipient.ID, &acc.Recipient.FullName, &acc.Recipient.ProfilePic,
		); err != nil {
			return nil, err
		}
		lists.AcceptedReqs = append(lists.AcceptedReqs, acc)
	}
	return &lists, rows.Err()
}

// ListOutgoingPending returns the user's pending requests with each recipient
// resolved to a reduced profile.
func ListOutgoingPending(ctx context.Context, userID uuid.UUID) ([]models.OutgoingFriendRequest, error) {
	rows, err := DB.Query(ctx, `
		SELECT r.id, r.status, r.created_at,
		       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM friend_requests r
		JOIN users u ON u.id = r.recipient
		WHERE r.sender = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.OutgoingFriendRequest{}
	for rows.Next() {
		var o models.OutgoingFriendRequest
		if err := rows.Scan(
			&o.ID, &o.Status, &o.CreatedAt,
			&o.Recipient.ID, &o.Recipient.FullName, &o.Recipient.ProfilePic,
			&o.Recipient.NativeLanguage, &o.Recipient.LearningLanguage,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// RemoveFriend deletes the friendship and every request between the pair, in
// either direction, in one transaction. Removing an already-removed pair is
// not an error.
func RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, friendID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM friendships WHERE user_a=LEAST($1,$2) AND user_b=GREATEST($1,$2)`,
			userID, friendID,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`DELETE FROM friend_requests
			 WHERE (sender=$1 AND recipient=$2) OR (sender=$2 AND recipient=$1)`,
			userID, friendID,
		)
		return err
	})
}
