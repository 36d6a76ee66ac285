// Package httpapi exposes the EcoReceipt HTTP/JSON API.
package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/ecoreceipt/ecoreceipt/internal/analytics"
	"github.com/ecoreceipt/ecoreceipt/internal/assistant"
	"github.com/ecoreceipt/ecoreceipt/internal/errs"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
	"github.com/ecoreceipt/ecoreceipt/internal/repository"
	"github.com/ecoreceipt/ecoreceipt/internal/service"
	"github.com/ecoreceipt/ecoreceipt/internal/token"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	receipts service.ReceiptService
	users    repository.UserRepository
	tokens   *token.Service
	bridge   *assistant.Bridge
	log      *zap.Logger
}

// New constructs a Server with injected dependencies.
func New(auth service.AuthService, receipts service.ReceiptService, users repository.UserRepository,
	tokens *token.Service, bridge *assistant.Bridge, log *zap.Logger) *Server {
	return &Server{auth: auth, receipts: receipts, users: users, tokens: tokens, bridge: bridge, log: log}
}

// Handler returns the full route table wrapped in recovery and logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/receipts", s.requireAuth(s.handleListReceipts))
	mux.HandleFunc("POST /api/receipts", s.requireAuth(s.handleCreateReceipt))
	mux.HandleFunc("POST /api/receipts/ocr", s.requireAuth(s.handleOCR))
	mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetReceipt))
	mux.HandleFunc("DELETE /api/receipts/{id}", s.requireAuth(s.handleDeleteReceipt))

	mux.HandleFunc("GET /api/analytics/environmental-impact", s.requireAuth(s.handleImpact))
	mux.HandleFunc("GET /api/analytics/spending", s.requireAuth(s.handleSpending))

	mux.HandleFunc("POST /api/ai/chat", s.requireAuth(s.handleChat))

	chain := Recover(s.log)(Logging(s.log)(mux))
	return chain
}

// requireAuth is the single authorization boundary: it resolves the bearer
// token to a stored user and makes it the request's caller identity. The 401
// body never reveals which check failed.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}
		subject, err := s.tokens.Validate(tok)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}
		// A structurally valid token for a user that no longer exists must
		// not authenticate.
		u, err := s.users.GetByID(r.Context(), subject)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), u)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		t := strings.TrimSpace(v[7:])
		if t != "" {
			return t, true
		}
	}
	return "", false
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "EcoReceipt API is running",
	})
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeDetail(w, http.StatusBadRequest, "email, password and name are required")
		return
	}
	u, tok, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		s.serverError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: u, AccessToken: tok.AccessToken, TokenType: "bearer"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, tok, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUnauthorized):
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, errs.ErrRateLimited):
			writeDetail(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		default:
			s.serverError(w, "login", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: u, AccessToken: tok.AccessToken, TokenType: "bearer"})
}

// --- Receipts ---

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	list, err := s.receipts.List(r.Context(), caller.ID)
	if err != nil {
		s.serverError(w, "list receipts", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	var draft model.ReceiptDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.Retailer == "" || draft.Category == "" {
		writeDetail(w, http.StatusBadRequest, "retailer and category are required")
		return
	}
	for _, it := range draft.Items {
		if it.Quantity < 0 {
			writeDetail(w, http.StatusBadRequest, "item quantity must not be negative")
			return
		}
	}
	rec, err := s.receipts.Create(r.Context(), caller.ID, draft)
	if err != nil {
		s.serverError(w, "create receipt", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		// An unparseable id cannot name an existing receipt.
		writeDetail(w, http.StatusNotFound, "Receipt not found")
		return
	}
	rec, err := s.receipts.Get(r.Context(), caller.ID, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Receipt not found")
			return
		}
		s.serverError(w, "get receipt", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Receipt not found")
		return
	}
	if err := s.receipts.Delete(r.Context(), caller.ID, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Receipt not found")
			return
		}
		s.serverError(w, "delete receipt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Receipt deleted successfully"})
}

// --- Analytics ---

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	list, err := s.receipts.List(r.Context(), caller.ID)
	if err != nil {
		s.serverError(w, "impact", err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Impact(len(list)))
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	list, err := s.receipts.List(r.Context(), caller.ID)
	if err != nil {
		s.serverError(w, "spending", err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Spending(list))
}

// --- AI chat ---

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromCtx(r.Context())
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	list, err := s.receipts.List(r.Context(), caller.ID)
	if err != nil {
		// Chat is best-effort even when the store misbehaves.
		list = nil
	}
	answer := s.bridge.Answer(r.Context(), req.Message, list)
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

// --- OCR mock ---

// handleOCR returns a fixed parsed receipt. No image is processed; the
// endpoint exists so clients can exercise the scan flow without an OCR
// provider.
func (s *Server) handleOCR(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	mock := model.ReceiptDraft{
		Retailer: "Digital Store",
		Date:     now.Format("2006-01-02"),
		Time:     now.Format("15:04"),
		Items: []model.ReceiptItem{
			{Name: "Sample Item 1", Quantity: 1, Price: 15.99},
			{Name: "Sample Item 2", Quantity: 2, Price: 24.98},
		},
		Subtotal: 40.97,
		Tax:      4.10,
		Total:    45.07,
		Category: "General",
		Logo:     "https://placehold.co/50x50/4CAF50/FFFFFF?text=DS",
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"parsed_receipt": mock,
		"message":        "Receipt processed successfully (mock data)",
	})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	writeDetail(w, http.StatusInternalServerError, "internal error")
}
