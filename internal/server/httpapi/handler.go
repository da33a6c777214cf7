package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/server/models"
	"github.com/dberezin/ipotrack/internal/server/services"
)

const msgInternalError = "Internal server error"

type messageResponse struct {
	Message string `json:"message"`
}

// userResponse is the public view of an account. The password hash never
// appears in responses.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type applicationRequest struct {
	CompanyName   string  `json:"companyName"`
	CompanySymbol string  `json:"companySymbol"`
	IssueSize     float64 `json:"issueSize"`
	PricePerShare float64 `json:"pricePerShare"`
	TotalShares   int64   `json:"totalShares"`
}

type applicationResponse struct {
	ID            string    `json:"id"`
	CompanyName   string    `json:"companyName"`
	CompanySymbol string    `json:"companySymbol"`
	IssueSize     float64   `json:"issueSize"`
	PricePerShare float64   `json:"pricePerShare"`
	TotalShares   int64     `json:"totalShares"`
	Status        string    `json:"status"`
	HasDocument   bool      `json:"hasDocument"`
	CreatedAt     time.Time `json:"createdAt"`
}

type documentURLResponse struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

func toApplicationResponse(a *models.Application) applicationResponse {
	return applicationResponse{
		ID:            a.ID,
		CompanyName:   a.CompanyName,
		CompanySymbol: a.CompanySymbol,
		IssueSize:     a.IssueSize,
		PricePerShare: a.PricePerShare,
		TotalShares:   a.TotalShares,
		Status:        a.Status,
		HasDocument:   a.DocumentKey != nil,
		CreatedAt:     a.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInvalidInput):
			writeError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, common.ErrorAlreadyExists):
			writeError(w, http.StatusBadRequest, "User already exists")
		default:
			s.logger.Error(r.Context(), "register failed", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    userResponse{ID: user.ID, Email: user.Email},
		Token:   token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInvalidInput):
			writeError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, common.ErrorInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid password")
		default:
			s.logger.Error(r.Context(), "login failed", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    userResponse{ID: user.ID, Email: user.Email},
		Token:   token,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	user, err := s.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error(r.Context(), "me lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Company name and symbol are required")
		return
	}

	app, err := s.applications.Create(r.Context(), userIDFromContext(r.Context()), services.CreateApplicationInput{
		CompanyName:   req.CompanyName,
		CompanySymbol: req.CompanySymbol,
		IssueSize:     req.IssueSize,
		PricePerShare: req.PricePerShare,
		TotalShares:   req.TotalShares,
	})
	if err != nil {
		if errors.Is(err, common.ErrorInvalidInput) {
			writeError(w, http.StatusBadRequest, "Company name and symbol are required")
			return
		}
		s.logger.Error(r.Context(), "create application failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.logger.Error(r.Context(), "list applications failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	out := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationResponse(a))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.applications.NewDocumentUploadURL(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Application not found")
			return
		}
		s.logger.Error(r.Context(), "document upload url failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, documentURLResponse{Key: key, URL: url})
}

func (s *Server) handleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	url, err := s.applications.DocumentDownloadURL(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		s.logger.Error(r.Context(), "document download url failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, documentURLResponse{URL: url})
}
