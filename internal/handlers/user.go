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

// RecommendedUsersHandler returns onboarded users who are not the requester
// and not already friends. Pending requests are not filtered; the client
// decides how to render those.
func RecommendedUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	users, err := database.ListRecommended(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "list recommended users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// MyFriendsHandler returns reduced profiles for the requester's friends. An
// empty friends list is a valid 200 with an empty array.
func MyFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	friends, err := database.ListFriends(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "list friends", err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// RemoveFriendHandler unfriends both sides and clears every request between
// the pair. Removing a non-friend succeeds; removing a non-user is a 404.
func RemoveFriendHandler(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		friendID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid friend id")
			return
		}

		if err := database.RemoveFriend(r.Context(), userID, friendID); err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				writeMessage(w, http.StatusNotFound, "Friend not found")
				return
			}
			writeInternalError(w, "remove friend", err)
			return
		}

		publishFriendEvent(hub, cache.FriendEventRecord{
			EventType: cache.EventFriendRemoved,
			ActorID:   userID,
			SubjectID: friendID,
		})
		writeMessage(w, http.StatusOK, "Friend removed successfully")
	}
}
