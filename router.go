package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"notes-backend/auth"
	"notes-backend/db"
	"notes-backend/handlers"
	appmw "notes-backend/middleware"
)

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(store db.Store, tokens *auth.Tokens) *chi.Mux {
	users := handlers.NewAuthHandler(store, tokens)
	notes := handlers.NewNoteHandler(store)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Api working"))
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", users.Register)
		r.Post("/login", users.Login)
	})

	r.Route("/api/note", func(r chi.Router) {
		r.Use(appmw.RequireAuth(tokens))
		r.Post("/createnote", notes.CreateNote)
		r.Get("/allnotes", notes.GetNotes)
		r.Get("/trash", notes.GetTrash)
		r.Get("/search", notes.SearchNotes)
		r.Get("/{id}", notes.GetNote)
		r.Put("/{id}", notes.UpdateNote)
		r.Delete("/{id}", notes.DeleteNote)
	})

	return r
}
