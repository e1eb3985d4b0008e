package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type userCreds struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *App) rejectLogin(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Login required!"`)
	writeError(w, http.StatusUnauthorized, codeInvalidCredentials, msgCouldNotVerify)
}

// HandleLogin exchanges HTTP Basic credentials for an access token. Unknown
// names and wrong passwords are indistinguishable to the client.
func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	name, password, ok := r.BasicAuth()
	if !ok || name == "" || password == "" {
		a.rejectLogin(w)
		return
	}

	user, err := a.DB.GetUserByName(r.Context(), name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.WithError(err).Error("login lookup")
			writeError(w, http.StatusInternalServerError, codeInternal, msgInternal)
			return
		}
		burnPasswordCheck(password)
		a.rejectLogin(w)
		return
	}
	if !comparePassword(user.Password, password) {
		a.rejectLogin(w)
		return
	}

	token, err := a.Tokens.Issue(user.PublicID, a.now())
	if err != nil {
		a.log.WithError(err).Error("issue token")
		writeError(w, http.StatusInternalServerError, codeInternal, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (a *App) HandleListUsers(w http.ResponseWriter, r *http.Request, _ *User) {
	users, err := a.DB.ListUsers(r.Context())
	if err != nil {
		a.internalError(w, err, "list users")
		return
	}
	out := make([]userPayload, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPayload(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (a *App) HandleGetUser(w http.ResponseWriter, r *http.Request, _ *User) {
	user, err := a.DB.GetUserByPublicID(r.Context(), mux.Vars(r)["public_id"])
	if err != nil {
		a.userStoreError(w, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserPayload(user)})
}

func (a *App) HandleCreateUser(w http.ResponseWriter, r *http.Request, _ *User) {
	var c userCreds
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, msgInvalidBody)
		return
	}
	if c.Name == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Name and password are required")
		return
	}

	hashed, err := hashPassword(c.Password)
	if err != nil {
		a.internalError(w, err, "hash password")
		return
	}
	if _, err := a.DB.CreateUser(r.Context(), uuid.NewString(), c.Name, hashed, false); err != nil {
		a.userStoreError(w, err, "create user")
		return
	}
	writeMessage(w, http.StatusCreated, "New user created!")
}

func (a *App) HandlePromoteUser(w http.ResponseWriter, r *http.Request, _ *User) {
	if err := a.DB.PromoteUser(r.Context(), mux.Vars(r)["public_id"]); err != nil {
		a.userStoreError(w, err, "promote user")
		return
	}
	writeMessage(w, http.StatusOK, "The user has been promoted")
}

// HandleUpdateUser renames a user. Permission is checked before the target is
// looked up, so non-admins cannot probe for other users' ids.
func (a *App) HandleUpdateUser(w http.ResponseWriter, r *http.Request, caller *User) {
	publicID := mux.Vars(r)["public_id"]
	if err := selfOrAdmin(caller, publicID); err != nil {
		writeError(w, http.StatusForbidden, codeForbidden, msgForbidden)
		return
	}

	var in struct {
		Name *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, msgInvalidBody)
		return
	}
	name := ""
	if in.Name != nil {
		name = *in.Name
	}

	if err := a.DB.UpdateUserName(r.Context(), publicID, name); err != nil {
		a.userStoreError(w, err, "update user")
		return
	}
	writeMessage(w, http.StatusOK, "The user has been updated")
}

func (a *App) HandleDeleteUser(w http.ResponseWriter, r *http.Request, _ *User) {
	if err := a.DB.DeleteUser(r.Context(), mux.Vars(r)["public_id"]); err != nil {
		a.userStoreError(w, err, "delete user")
		return
	}
	writeMessage(w, http.StatusOK, "The user has been deleted")
}

func (a *App) userStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, msgNoUser)
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, codeUserExists, msgUserExists)
	default:
		a.internalError(w, err, op)
	}
}

func (a *App) internalError(w http.ResponseWriter, err error, op string) {
	a.log.WithError(err).Error(op)
	writeError(w, http.StatusInternalServerError, codeInternal, msgInternal)
}
