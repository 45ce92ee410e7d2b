package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anirudhnegi03/tarunet/internal/cache"
	"github.com/anirudhnegi03/tarunet/internal/database"
	"github.com/anirudhnegi03/tarunet/internal/middleware"
	"github.com/anirudhnegi03/tarunet/internal/notify"
)

// SendFriendRequestHandler creates a pending request to the user in the path.
//
// Self-requests, unknown recipients, existing friendships, and in-flight
// pending requests are all 400s with distinct messages, matching what the
// client surfaces in its banner.
func SendFriendRequestHandler(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid recipient id")
			return
		}

		if recipientID == userID {
			writeMessage(w, http.StatusBadRequest, "You can't send friend request to yourself")
			return
		}

		req, err := database.CreateFriendRequest(r.Context(), userID, recipientID)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrUserNotFound):
				writeMessage(w, http.StatusBadRequest, "User not found")
			case errors.Is(err, database.ErrAlreadyFriends):
				writeMessage(w, http.StatusBadRequest, "You are already friends with this user")
			case errors.Is(err, database.ErrDuplicateRequest):
				writeMessage(w, http.StatusBadRequest, "Friend request already sent")
			default:
				writeInternalError(w, "send friend request", err)
			}
			return
		}

		publishFriendEvent(hub, cache.FriendEventRecord{
			EventType: cache.EventRequestSent,
			ActorID:   userID,
			SubjectID: recipientID,
			RequestID: req.ID,
		})
		writeJSON(w, http.StatusCreated, req)
	}
}

// AcceptFriendRequestHandler accepts a pending request addressed to the
// requester. Unknown requests and requests addressed to someone else are both
// 400s, preserving the API's historical shape.
func AcceptFriendRequestHandler(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request id")
			return
		}

		sender, err := database.AcceptFriendRequest(r.Context(), userID, requestID)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrRequestNotFound):
				writeMessage(w, http.StatusBadRequest, "Friend request not found")
			case errors.Is(err, database.ErrNotRecipient):
				writeMessage(w, http.StatusBadRequest, "You are not authorized to accept this request")
			default:
				writeInternalError(w, "accept friend request", err)
			}
			return
		}

		publishFriendEvent(hub, cache.FriendEventRecord{
			EventType: cache.EventRequestAccepted,
			ActorID:   userID,
			SubjectID: sender,
			RequestID: requestID,
		})
		writeMessage(w, http.StatusOK, "Friend request accepted")
	}
}

// RejectFriendRequestHandler deletes a pending request addressed to the
// requester. Unlike accept, this route reports 404/403 distinctly.
func RejectFriendRequestHandler(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request id")
			return
		}

		sender, err := database.RejectFriendRequest(r.Context(), userID, requestID)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrRequestNotFound):
				writeMessage(w, http.StatusNotFound, "Friend request not found")
			case errors.Is(err, database.ErrNotRecipient):
				writeMessage(w, http.StatusForbidden, "Not authorized to reject this request")
			default:
				writeInternalError(w, "reject friend request", err)
			}
			return
		}

		publishFriendEvent(hub, cache.FriendEventRecord{
			EventType: cache.EventRequestRejected,
			ActorID:   userID,
			SubjectID: sender,
			RequestID: requestID,
		})
		writeMessage(w, http.StatusOK, "Friend request rejected")
	}
}

// FriendRequestsHandler returns the requester's inbox: pending requests
// addressed to them plus accepted requests involving them.
func FriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	lists, err := database.FriendRequestLists(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "list friend requests", err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// OutgoingFriendRequestsHandler returns the requester's pending sent
// requests. This list is the authoritative "already requested" state.
func OutgoingFriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	out, err := database.ListOutgoingPending(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "list outgoing friend requests", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
