package http

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pointage-hq/pointage-backend-go/internal/handler/http/response"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/jwt"
)

type AuthHandler interface {
	IssueToken(w http.ResponseWriter, r *http.Request)
}

type authHandlerImpl struct {
	jwtService   jwt.Service
	adminKeyHash string
}

func NewAuthHandler(jwtService jwt.Service, adminKeyHash string) AuthHandler {
	return &authHandlerImpl{
		jwtService:   jwtService,
		adminKeyHash: adminKeyHash,
	}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// IssueToken exchanges the admin API key for a short-lived access token
// used on the mutating directory endpoints.
func (h *authHandlerImpl) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.adminKeyHash), []byte(req.APIKey)); err != nil {
		response.Unauthorized(w, "Invalid API key")
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken("admin")
	if err != nil {
		response.InternalServerError(w, "Failed to issue token")
		return
	}

	response.Success(w, tokenResponse{AccessToken: token, ExpiresAt: expiresAt})
}
