package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/anirudhnegi03/tarunet/internal/auth"
	"github.com/anirudhnegi03/tarunet/internal/database"
	"github.com/anirudhnegi03/tarunet/internal/middleware"
	"github.com/anirudhnegi03/tarunet/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupHandler creates a user with a random avatar, then logs them in by
// setting the session cookie.
func SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(req.Password) < 6 {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeMessage(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	user := models.User{
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   req.Password,
		ProfilePic: fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", rand.Intn(100)+1),
	}

	if err := database.CreateUser(r.Context(), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeMessage(w, http.StatusBadRequest, "Email already exists, please use a different one")
			return
		}
		writeInternalError(w, "signup", err)
		return
	}

	token, err := auth.NewSessionToken(user.ID)
	if err != nil {
		writeInternalError(w, "signup token", err)
		return
	}
	http.SetCookie(w, auth.SessionCookie(token))

	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials and sets the session cookie.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := database.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.NewSessionToken(user.ID)
	if err != nil {
		writeInternalError(w, "login token", err)
		return
	}
	http.SetCookie(w, auth.SessionCookie(token))

	writeJSON(w, http.StatusOK, user)
}

// LogoutHandler clears the session cookie.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ExpiredSessionCookie())
	writeMessage(w, http.StatusOK, "Logout successful")
}

type onboardingRequest struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
}

// OnboardingHandler fills in the profile fields and marks the user onboarded,
// which makes them visible in recommendations.
func OnboardingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req onboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}

	missing := []string{}
	for field, val := range map[string]string{
		"fullName":         req.FullName,
		"bio":              req.Bio,
		"nativeLanguage":   req.NativeLanguage,
		"learningLanguage": req.LearningLanguage,
		"location":         req.Location,
	} {
		if val == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":       "All fields are required",
			"missingFields": missing,
		})
		return
	}

	user := models.User{
		ID:               userID,
		FullName:         req.FullName,
		Bio:              req.Bio,
		NativeLanguage:   req.NativeLanguage,
		LearningLanguage: req.LearningLanguage,
		Location:         req.Location,
	}
	if err := database.CompleteOnboarding(r.Context(), &user); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeInternalError(w, "onboarding", err)
		return
	}

	updated, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "onboarding reload", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// MeHandler returns the authenticated user's record.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeInternalError(w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
