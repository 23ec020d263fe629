package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/apperr"
	"cultivos/models"
)

// handleCreateFarm validates the environment fields and stores a new farm.
func (a *App) handleCreateFarm(w http.ResponseWriter, r *http.Request) {
	var req farmReq
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	env, err := req.validate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	f := models.Farm{
		OwnerID:  userID(r),
		Name:     strings.TrimSpace(req.Name),
		Location: strings.TrimSpace(req.Location),
	}
	f.SetEnvironment(env)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.farms.CreateFarm(ctx, &f); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// handleListFarms returns the current user's farms, newest first.
func (a *App) handleListFarms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	out, err := a.farms.ListFarms(ctx, userID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetFarm returns a single farm by id (owned by the user).
func (a *App) handleGetFarm(w http.ResponseWriter, r *http.Request) {
	oid, err := farmIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	f, err := a.farms.GetFarm(ctx, oid, userID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleUpdateFarm replaces the farm's name, location and conditions.
func (a *App) handleUpdateFarm(w http.ResponseWriter, r *http.Request) {
	oid, err := farmIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req farmReq
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	env, err := req.validate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	f := models.Farm{
		ID:       oid,
		OwnerID:  userID(r),
		Name:     strings.TrimSpace(req.Name),
		Location: strings.TrimSpace(req.Location),
	}
	f.SetEnvironment(env)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	out, err := a.farms.UpdateFarm(ctx, &f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteFarm removes a farm and its prediction history.
func (a *App) handleDeleteFarm(w http.ResponseWriter, r *http.Request) {
	oid, err := farmIDParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.farms.DeleteFarm(ctx, oid, userID(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func farmIDParam(r *http.Request) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("bad id")
	}
	return oid, nil
}
