package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"skillscape-chat/internal/models"
)

var (
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrDuplicateRequest = errors.New("friend request already exists")
)

// FriendRepository abstracts the friend graph. AreFriends is the boolean
// precondition the chat module consumes.
type FriendRepository interface {
	CreateRequest(ctx context.Context, senderID, receiverID int) (models.FriendRequest, error)
	GetRequest(ctx context.Context, requestID int) (models.FriendRequest, error)
	SetRequestStatus(ctx context.Context, requestID int, status string) error
	ListIncomingPending(ctx context.Context, userID int) ([]models.FriendRequest, error)
	ListFriendIDs(ctx context.Context, userID int) ([]int, error)
	AreFriends(ctx context.Context, userID, friendID int) (bool, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// CreateRequest inserts a pending request unless one already exists in either
// direction (any status: a rejected pair must re-request explicitly, a pending
// or accepted pair must not duplicate).
func (r *FriendRepo) CreateRequest(ctx context.Context, senderID, receiverID int) (models.FriendRequest, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friend_requests
         WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
         AND status IN ('pending', 'accepted'))`, senderID, receiverID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if exists {
		return models.FriendRequest{}, ErrDuplicateRequest
	}

	var req models.FriendRequest
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO friend_requests (sender_id, receiver_id) VALUES ($1, $2)
         ON CONFLICT (sender_id, receiver_id) DO UPDATE SET status='pending', updated_at=NOW()
         RETURNING id, sender_id, receiver_id, status, created_at, updated_at`,
		senderID, receiverID).StructScan(&req)
	return req, err
}

// GetRequest fetches a request by id.
func (r *FriendRepo) GetRequest(ctx context.Context, requestID int) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT id, sender_id, receiver_id, status, created_at, updated_at
         FROM friend_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

// SetRequestStatus transitions a pending request to accepted or rejected.
func (r *FriendRepo) SetRequestStatus(ctx context.Context, requestID int, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE friend_requests SET status=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`,
		requestID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListIncomingPending returns pending requests addressed to the user.
func (r *FriendRepo) ListIncomingPending(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT id, sender_id, receiver_id, status, created_at, updated_at
         FROM friend_requests WHERE receiver_id=$1 AND status='pending'
         ORDER BY created_at DESC`, userID)
	return reqs, err
}

// ListFriendIDs returns ids of all accepted friends of the user.
func (r *FriendRepo) ListFriendIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END
         FROM friend_requests
         WHERE (sender_id=$1 OR receiver_id=$1) AND status='accepted'`, userID)
	return ids, err
}

// AreFriends reports whether an accepted friendship exists in either direction.
func (r *FriendRepo) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friend_requests
         WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
         AND status='accepted')`, userID, friendID)
	return exists, err
}
