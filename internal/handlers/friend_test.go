package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anirudhnegi03/tarunet/internal/auth"
	"github.com/anirudhnegi03/tarunet/internal/database"
	"github.com/anirudhnegi03/tarunet/internal/middleware"
	"github.com/anirudhnegi03/tarunet/internal/models"
	"github.com/anirudhnegi03/tarunet/internal/notify"
)

// newTestRouter mirrors the /api/users wiring from cmd/server.
func newTestRouter() chi.Router {
	hub := notify.NewHub()
	r := chi.NewRouter()
	r.Route("/api/users", func(ur chi.Router) {
		ur.Use(middleware.RequireAuth)
		ur.Get("/", RecommendedUsersHandler)
		ur.Get("/friends", MyFriendsHandler)
		ur.Delete("/friends/{id}", RemoveFriendHandler(hub))
		ur.Post("/friend-requests/{id}", SendFriendRequestHandler(hub))
		ur.Put("/friend-requests/{id}/accept", AcceptFriendRequestHandler(hub))
		ur.Delete("/friend-requests/{id}/reject", RejectFriendRequestHandler(hub))
		ur.Get("/friend-requests", FriendRequestsHandler)
		ur.Get("/outgoing-friend-requests", OutgoingFriendRequestsHandler)
	})
	return r
}

func requireDB(t *testing.T) {
	t.Helper()
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set; skipping DB-backed test")
	}
	auth.Init()
	database.ConnectDB()
}

// createOnboardedUser inserts a user directly and marks them onboarded.
func createOnboardedUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "password",
	}
	ctx := context.Background()
	if err := database.CreateUser(ctx, &u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	u.Bio = "hello"
	u.NativeLanguage = "english"
	u.LearningLanguage = "spanish"
	u.Location = "Testville"
	if err := database.CompleteOnboarding(ctx, &u); err != nil {
		t.Fatalf("CompleteOnboarding failed: %v", err)
	}
	return &u
}

func doAs(t *testing.T, r chi.Router, userID uuid.UUID, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.NewSessionToken(userID)
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestFriendRequestFlow walks the whole lifecycle: send, duplicate checks,
// inbox, accept, friends lists, and recommendations.
func TestFriendRequestFlow(t *testing.T) {
	requireDB(t)
	r := newTestRouter()

	alice := createOnboardedUser(t, "alice")
	bob := createOnboardedUser(t, "bob")
	carol := createOnboardedUser(t, "carol")

	// self-request is rejected
	w := doAs(t, r, alice.ID, "POST", "/api/users/friend-requests/"+alice.ID.String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self-request: expected 400, got %d, body=%s", w.Code, w.Body.String())
	}

	// unknown recipient is rejected
	w = doAs(t, r, alice.ID, "POST", "/api/users/friend-requests/"+uuid.NewString())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown recipient: expected 400, got %d", w.Code)
	}

	// alice sends a request to bob
	w = doAs(t, r, alice.ID, "POST", "/api/users/friend-requests/"+bob.ID.String())
	if w.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}
	var created models.FriendRequest
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created request: %v", err)
	}
	if created.Status != models.FriendRequestPending {
		t.Fatalf("expected pending status, got %q", created.Status)
	}

	// a second send in either direction conflicts while the first is pending
	w = doAs(t, r, alice.ID, "POST", "/api/users/friend-requests/"+bob.ID.String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate send: expected 400, got %d", w.Code)
	}
	w = doAs(t, r, bob.ID, "POST", "/api/users/friend-requests/"+alice.ID.String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reverse duplicate send: expected 400, got %d", w.Code)
	}

	// alice sees the request in her outgoing list
	w = doAs(t, r, alice.ID, "GET", "/api/users/outgoing-friend-requests")
	if w.Code != http.StatusOK {
		t.Fatalf("outgoing: expected 200, got %d", w.Code)
	}
	var outgoing []models.OutgoingFriendRequest
	if err := json.Unmarshal(w.Body.Bytes(), &outgoing); err != nil {
		t.Fatalf("failed to decode outgoing list: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].Recipient.ID != bob.ID {
		t.Fatalf("expected one outgoing request to bob, got %+v", outgoing)
	}

	// bob sees it in his inbox
	w = doAs(t, r, bob.ID, "GET", "/api/users/friend-requests")
	if w.Code != http.StatusOK {
		t.Fatalf("inbox: expected 200, got %d", w.Code)
	}
	var lists models.FriendRequestLists
	if err := json.Unmarshal(w.Body.Bytes(), &lists); err != nil {
		t.Fatalf("failed to decode request lists: %v", err)
	}
	if len(lists.IncomingReqs) != 1 || lists.IncomingReqs[0].Sender.ID != alice.ID {
		t.Fatalf("expected one incoming request from alice, got %+v", lists.IncomingReqs)
	}

	// carol cannot accept a request that is not addressed to her
	w = doAs(t, r, carol.ID, "PUT", "/api/users/friend-requests/"+created.ID.String()+"/accept")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("foreign accept: expected 400, got %d", w.Code)
	}

	// the request is still pending after the failed accept
	w = doAs(t, r, bob.ID, "GET", "/api/users/friend-requests")
	if err := json.Unmarshal(w.Body.Bytes(), &lists); err != nil {
		t.Fatalf("failed to decode request lists: %v", err)
	}
	if len(lists.IncomingReqs) != 1 {
		t.Fatalf("expected request to remain pending, got %+v", lists)
	}

	// bob accepts
	w = doAs(t, r, bob.ID, "PUT", "/api/users/friend-requests/"+created.ID.String()+"/accept")
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	// both sides now list each other as friends
	for _, tc := range []struct {
		who    *models.User
		expect uuid.UUID
	}{
		{alice, bob.ID},
		{bob, alice.ID},
	} {
		w = doAs(t, r, tc.who.ID, "GET", "/api/users/friends")
		if w.Code != http.StatusOK {
			t.Fatalf("friends: expected 200, got %d", w.Code)
		}
		var friends []models.UserSummary
		if err := json.Unmarshal(w.Body.Bytes(), &friends); err != nil {
			t.Fatalf("failed to decode friends: %v", err)
		}
		found := false
		for _, f := range friends {
			if f.ID == tc.expect {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %v in %s's friends, got %+v", tc.expect, tc.who.FullName, friends)
		}
	}

	// the accepted request shows up in both inboxes
	w = doAs(t, r, alice.ID, "GET", "/api/users/friend-requests")
	if err := json.Unmarshal(w.Body.Bytes(), &lists); err != nil {
		t.Fatalf("failed to decode request lists: %v", err)
	}
	if len(lists.AcceptedReqs) == 0 {
		t.Fatalf("expected accepted request in alice's lists, got %+v", lists)
	}

	// recommendations exclude self and friends
	w = doAs(t, r, alice.ID, "GET", "/api/users")
	if w.Code != http.StatusOK {
		t.Fatalf("recommended: expected 200, got %d", w.Code)
	}
	var recommended []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &recommended); err != nil {
		t.Fatalf("failed to decode recommended users: %v", err)
	}
	for _, u := range recommended {
		if u.ID == alice.ID {
			t.Fatal("recommended list contains the requester")
		}
		if u.ID == bob.ID {
			t.Fatal("recommended list contains an existing friend")
		}
	}
}

// TestRejectAndResend checks that rejection deletes the request and unblocks
// a fresh send.
func TestRejectAndResend(t *testing.T) {
	requireDB(t)
	r := newTestRouter()

	dave := createOnboardedUser(t, "dave")
	erin := createOnboardedUser(t, "erin")

	w := doAs(t, r, dave.ID, "POST", "/api/users/friend-requests/"+erin.ID.String())
	if w.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", w.Code)
	}
	var created models.FriendRequest
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created request: %v", err)
	}

	// rejecting a missing request is a 404, by a non-recipient a 403
	w = doAs(t, r, erin.ID, "DELETE", "/api/users/friend-requests/"+uuid.NewString()+"/reject")
	if w.Code != http.StatusNotFound {
		t.Fatalf("reject missing: expected 404, got %d", w.Code)
	}
	w = doAs(t, r, dave.ID, "DELETE", "/api/users/friend-requests/"+created.ID.String()+"/reject")
	if w.Code != http.StatusForbidden {
		t.Fatalf("reject as sender: expected 403, got %d", w.Code)
	}

	w = doAs(t, r, erin.ID, "DELETE", "/api/users/friend-requests/"+created.ID.String()+"/reject")
	if w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	// the rejected request no longer appears anywhere
	w = doAs(t, r, dave.ID, "GET", "/api/users/outgoing-friend-requests")
	var outgoing []models.OutgoingFriendRequest
	if err := json.Unmarshal(w.Body.Bytes(), &outgoing); err != nil {
		t.Fatalf("failed to decode outgoing list: %v", err)
	}
	if len(outgoing) != 0 {
		t.Fatalf("expected empty outgoing list after rejection, got %+v", outgoing)
	}

	// no friendship was formed
	w = doAs(t, r, dave.ID, "GET", "/api/users/friends")
	var friends []models.UserSummary
	if err := json.Unmarshal(w.Body.Bytes(), &friends); err != nil {
		t.Fatalf("failed to decode friends: %v", err)
	}
	for _, f := range friends {
		if f.ID == erin.ID {
			t.Fatal("rejection must not create a friendship")
		}
	}

	// dave may now send again
	w = doAs(t, r, dave.ID, "POST", "/api/users/friend-requests/"+erin.ID.String())
	if w.Code != http.StatusCreated {
		t.Fatalf("resend after reject: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}
}

// TestRemoveFriend checks the cascade delete and idempotence.
func TestRemoveFriend(t *testing.T) {
	requireDB(t)
	r := newTestRouter()

	frank := createOnboardedUser(t, "frank")
	grace := createOnboardedUser(t, "grace")

	w := doAs(t, r, frank.ID, "POST", "/api/users/friend-requests/"+grace.ID.String())
	if w.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", w.Code)
	}
	var created models.FriendRequest
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created request: %v", err)
	}
	w = doAs(t, r, grace.ID, "PUT", "/api/users/friend-requests/"+created.ID.String()+"/accept")
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", w.Code)
	}

	// removing an unknown user is a 404
	w = doAs(t, r, frank.ID, "DELETE", "/api/users/friends/"+uuid.NewString())
	if w.Code != http.StatusNotFound {
		t.Fatalf("remove unknown: expected 404, got %d", w.Code)
	}

	w = doAs(t, r, frank.ID, "DELETE", "/api/users/friends/"+grace.ID.String())
	if w.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	// both friends lists are clean and no request rows remain
	for _, who := range []*models.User{frank, grace} {
		w = doAs(t, r, who.ID, "GET", "/api/users/friends")
		var friends []models.UserSummary
		if err := json.Unmarshal(w.Body.Bytes(), &friends); err != nil {
			t.Fatalf("failed to decode friends: %v", err)
		}
		if len(friends) != 0 {
			t.Fatalf("expected no friends for %s after removal, got %+v", who.FullName, friends)
		}

		w = doAs(t, r, who.ID, "GET", "/api/users/friend-requests")
		var lists models.FriendRequestLists
		if err := json.Unmarshal(w.Body.Bytes(), &lists); err != nil {
			t.Fatalf("failed to decode request lists: %v", err)
		}
		if len(lists.IncomingReqs) != 0 || len(lists.AcceptedReqs) != 0 {
			t.Fatalf("expected no request rows for %s after removal, got %+v", who.FullName, lists)
		}
	}

	// removing again succeeds: the operation is idempotent
	w = doAs(t, r, frank.ID, "DELETE", "/api/users/friends/"+grace.ID.String())
	if w.Code != http.StatusOK {
		t.Fatalf("second remove: expected 200, got %d", w.Code)
	}

	// and frank may immediately send a new request
	w = doAs(t, r, frank.ID, "POST", "/api/users/friend-requests/"+grace.ID.String())
	if w.Code != http.StatusCreated {
		t.Fatalf("send after removal: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}
}
