package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"personachat/internal/core"
	"personachat/internal/store"
)

type ctxKey int

const userCtxKey ctxKey = 0

type APIHandler struct {
	authService *core.AuthService
	chatService *core.ChatService
	dbStore     *store.SQLiteStore
}

func NewAPIHandler(as *core.AuthService, cs *core.ChatService, db *store.SQLiteStore) *APIHandler {
	return &APIHandler{
		authService: as,
		chatService: cs,
		dbStore:     db,
	}
}

// AuthMiddleware resolves the bearer token into a user and stores it on the
// request context. Any failure is a 401; the body never says why.
func (h *APIHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := h.authService.ResolveToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				log.Printf("Error resolving token: %v", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) *store.User {
	return ctx.Value(userCtxKey).(*store.User)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	type dbStatus struct {
		Connected bool   `json:"connected"`
		Error     string `json:"error,omitempty"`
	}

	if err := h.dbStore.Ping(r.Context()); err != nil {
		log.Printf("Health check database ping failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "error",
			"message":  "Backend API is running but database connection failed",
			"database": dbStatus{Connected: false, Error: err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"message":  "Backend API is running",
		"database": dbStatus{Connected: true},
	})
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type AuthResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "User already exists")
		default:
			log.Printf("Registration error for %s: %v", req.Email, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("Login error for %s: %v", req.Email, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	reply, err := h.chatService.PostMessage(r.Context(), user.ID, req.Message)
	if err != nil {
		log.Printf("Chat error for user %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Message: reply})
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	messages, err := h.chatService.ListMessages(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing messages for user %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
