package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

type FriendRequest struct {
	ID        uuid.UUID `json:"id"`
	Sender    uuid.UUID `json:"sender"`
	Recipient uuid.UUID `json:"recipient"`
	Status    string    `json:"status"` // 'pending', 'accepted'
	CreatedAt time.Time `json:"createdAt"`
}

// IncomingFriendRequest is a pending request with the sender resolved to a
// reduced profile.
type IncomingFriendRequest struct {
	ID        uuid.UUID   `json:"id"`
	Sender    UserSummary `json:"sender"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AcceptedFriendRequest resolves both parties with name and picture only.
type AcceptedFriendRequest struct {
	ID        uuid.UUID   `json:"id"`
	Sender    UserSummary `json:"sender"`
	Recipient UserSummary `json:"recipient"`
	Status    string      `json:"status"`
}

// OutgoingFriendRequest is a pending request with the recipient resolved to a
// reduced profile.
type OutgoingFriendRequest struct {
	ID        uuid.UUID   `json:"id"`
	Recipient UserSummary `json:"recipient"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// FriendRequestLists is the combined response for the requests inbox: pending
// requests addressed to the user plus accepted requests involving them.
type FriendRequestLists struct {
	IncomingReqs []IncomingFriendRequest `json:"incomingReqs"`
	AcceptedReqs []AcceptedFriendRequest `json:"acceptedReqs"`
}
