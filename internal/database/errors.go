package database

import "errors"

// Classified errors returned by store operations. Handlers map these onto
// HTTP status codes; anything unrecognized is treated as internal.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrNotRecipient     = errors.New("not the recipient of this friend request")
	ErrAlreadyFriends   = errors.New("already friends with this user")
	ErrDuplicateRequest = errors.New("a friend request already exists between these users")
)
