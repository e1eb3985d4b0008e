package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router builds the full HTTP handler. The middleware chain wraps the mux
// rather than being registered with r.Use, so preflight requests and
// unmatched routes still pass through it.
func (a *App) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoints (no auth required)
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Hello World!"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if p, ok := a.DB.(interface{ ping() bool }); ok && !p.ping() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
	}).Methods(http.MethodGet)

	r.HandleFunc("/login", a.HandleLogin).Methods(http.MethodGet)

	// users; promote must be registered before the {public_id} routes
	r.Handle("/user", a.tokenRequired(requireAdmin(a.HandleListUsers))).Methods(http.MethodGet)
	r.Handle("/user", a.tokenRequired(requireAdmin(a.HandleCreateUser))).Methods(http.MethodPost)
	r.Handle("/user/promote/{public_id}", a.tokenRequired(requireAdmin(a.HandlePromoteUser))).Methods(http.MethodPut)
	r.Handle("/user/{public_id}", a.tokenRequired(requireAdmin(a.HandleGetUser))).Methods(http.MethodGet)
	r.Handle("/user/{public_id}", a.tokenRequired(a.HandleUpdateUser)).Methods(http.MethodPut)
	r.Handle("/user/{public_id}", a.tokenRequired(requireAdmin(a.HandleDeleteUser))).Methods(http.MethodDelete)

	// pets, scoped to the caller
	r.Handle("/pet", a.tokenRequired(a.HandleListPets)).Methods(http.MethodGet)
	r.Handle("/pet", a.tokenRequired(a.HandleCreatePet)).Methods(http.MethodPost)
	r.Handle("/pet/{id}", a.tokenRequired(a.HandleGetPet)).Methods(http.MethodGet)
	r.Handle("/pet/{id}", a.tokenRequired(a.HandleUpdatePet)).Methods(http.MethodPut)
	r.Handle("/pet/{id}", a.tokenRequired(a.HandleDeletePet)).Methods(http.MethodDelete)

	return a.Logging(a.Recover(SecurityHeaders(a.CORS(r))))
}
