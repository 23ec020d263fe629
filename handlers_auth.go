package main

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cultivos/apperr"
	"cultivos/models"
)

// handleRegister creates a new user with bcrypt-hashed password.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	var missing []string
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		a.writeError(w, r, apperr.MissingFields(missing))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		a.writeError(w, r, apperr.InvalidFields([]string{"email"}))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.writeError(w, r, apperr.Internal("hash password", err))
		return
	}
	u := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.users.CreateUser(ctx, &u); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleLogin verifies credentials and returns a JWT token.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			err = apperr.Unauthorized("invalid credentials")
		}
		a.writeError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		a.writeError(w, r, apperr.Unauthorized("invalid credentials"))
		return
	}

	tok, err := signJWT(a.cfg.JWTSecret, u.ID, a.cfg.TokenTTL)
	if err != nil {
		a.writeError(w, r, apperr.Internal("sign token", err))
		return
	}
	writeJSON(w, http.StatusOK, tokenResp{Token: tok, ExpiresAt: time.Now().Add(a.cfg.TokenTTL).UTC()})
}

// handleMe returns the current user's profile (without password hash).
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := a.users.UserByID(ctx, userID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
