package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

type petInput struct {
	Name string `json:"name"`
}

// parsePetID reads {id}. A value that is not a positive integer cannot name
// any pet.
func parsePetID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (a *App) petStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, msgNoPet)
		return
	}
	a.internalError(w, err, op)
}

func (a *App) HandleListPets(w http.ResponseWriter, r *http.Request, caller *User) {
	pets, err := a.DB.ListPetsByOwner(r.Context(), caller.ID)
	if err != nil {
		a.internalError(w, err, "list pets")
		return
	}
	out := make([]petPayload, 0, len(pets))
	for _, p := range pets {
		out = append(out, toPetPayload(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pets": out})
}

func (a *App) HandleGetPet(w http.ResponseWriter, r *http.Request, caller *User) {
	id, ok := parsePetID(r)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, msgNoPet)
		return
	}
	pet, err := a.DB.GetPet(r.Context(), id, caller.ID)
	if err != nil {
		a.petStoreError(w, err, "get pet")
		return
	}
	writeJSON(w, http.StatusOK, toPetPayload(pet))
}

// HandleCreatePet always attributes the pet to the caller; an owner in the
// body is ignored.
func (a *App) HandleCreatePet(w http.ResponseWriter, r *http.Request, caller *User) {
	var in petInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, msgInvalidBody)
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Pet name is required")
		return
	}
	if _, err := a.DB.CreatePet(r.Context(), in.Name, caller.ID); err != nil {
		a.internalError(w, err, "create pet")
		return
	}
	writeMessage(w, http.StatusCreated, "Pet created!")
}

func (a *App) HandleUpdatePet(w http.ResponseWriter, r *http.Request, caller *User) {
	id, ok := parsePetID(r)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, msgNoPet)
		return
	}
	if _, err := a.DB.GetPet(r.Context(), id, caller.ID); err != nil {
		a.petStoreError(w, err, "get pet")
		return
	}

	var in petInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, msgInvalidBody)
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Pet name is required")
		return
	}
	if err := a.DB.UpdatePetName(r.Context(), id, caller.ID, in.Name); err != nil {
		a.petStoreError(w, err, "update pet")
		return
	}
	writeMessage(w, http.StatusOK, "Pet updated!")
}

func (a *App) HandleDeletePet(w http.ResponseWriter, r *http.Request, caller *User) {
	id, ok := parsePetID(r)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, msgNoPet)
		return
	}
	if err := a.DB.DeletePet(r.Context(), id, caller.ID); err != nil {
		a.petStoreError(w, err, "delete pet")
		return
	}
	writeMessage(w, http.StatusOK, "Pet deleted!")
}
