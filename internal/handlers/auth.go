package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

// AuthHandler exposes registration, login and password recovery endpoints.
type AuthHandler struct {
	identity *services.IdentityService
	recovery *services.RecoveryService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(identity *services.IdentityService, recovery *services.RecoveryService) *AuthHandler {
	return &AuthHandler{identity: identity, recovery: recovery}
}

type registerRequest struct {
	Name     string  `json:"name" validate:"required,notblank,max=120"`
	Email    string  `json:"email" validate:"required,notblank,max=255"`
	Password string  `json:"password" validate:"required,max=128"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetRequest struct {
	Email    string `json:"email" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,max=128"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	pending, err := h.identity.Register(requestContext(c), services.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Phone:    body.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Verification code sent.",
		"user": gin.H{
			"name":  pending.Name,
			"email": pending.Email,
			"phone": pending.Phone,
		},
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.identity.Authenticate(requestContext(c), body.Email, body.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":      "Login successful.",
		"user":         result.Account,
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int64(result.ExpiresIn.Seconds()),
	})
}

// POST /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var body verifyRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.identity.Verify(requestContext(c), body.Email, body.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Email verified successfully."
	if result.AlreadyVerified {
		message = "Email already verified."
	}
	response.Success(c, http.StatusOK, gin.H{"message": message})
}

// POST /api/auth/resend
func (h *AuthHandler) Resend(c *gin.Context) {
	var body emailRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.identity.Resend(requestContext(c), body.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Verification code resent."})
}

// POST /api/auth/forgot
func (h *AuthHandler) Forgot(c *gin.Context) {
	var body emailRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.recovery.RequestReset(requestContext(c), body.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent."})
}

// POST /api/auth/reset
func (h *AuthHandler) Reset(c *gin.Context) {
	var body resetRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.recovery.ResetPassword(requestContext(c), body.Email, body.Token, body.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Password updated successfully."})
}
