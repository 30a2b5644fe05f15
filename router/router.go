package router

import (
	"net/http"

	"github.com/gorilla/mux"

	docHandler "naskahlokal/internal/document"
	"naskahlokal/internal/document/service"
	prefHandler "naskahlokal/internal/preference"
	"naskahlokal/internal/preference/repository"
	"naskahlokal/middleware"
	"naskahlokal/socket"
)

func Setup(docs *service.DocumentService, prefs *repository.PreferenceRepository, hub *socket.Hub, authSecret string) http.Handler {
	r := mux.NewRouter()
	auth := middleware.AuthMiddleware(authSecret)

	// WebSocket
	r.Handle("/ws", auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r, middleware.UserID(r))
	})))

	// REST API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth)

	dh := docHandler.NewDocumentHandler(docs)
	api.HandleFunc("/documents", dh.GetDocuments).Methods("GET")
	api.HandleFunc("/documents", dh.CreateDocument).Methods("POST")
	api.HandleFunc("/documents/{id}", dh.GetDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", dh.DeleteDocument).Methods("DELETE")
	api.HandleFunc("/documents/{id}/export", dh.ExportDocument).Methods("GET")

	ph := prefHandler.NewPreferenceHandler(prefs)
	api.HandleFunc("/preferences", ph.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", ph.UpdatePreferences).Methods("PUT")

	return middleware.CORSMiddleware(r)
}
