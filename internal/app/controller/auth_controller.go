package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/service"
	apperrors "github.com/kapehan/cafe-pos/internal/errors"
	"github.com/kapehan/cafe-pos/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
		"is_active":     user.IsActive,
		"last_login_at": user.LastLoginAt,
	}
}

// Login handles staff login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Refresh exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err, "refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Logout revokes the caller's access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	token, _ := middleware.GetToken(c)
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token, claims); err != nil {
		respondError(c, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		respondError(c, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// CreateStaff adds a cashier or admin account
// POST /api/v1/auth/staff
func (ctrl *AuthController) CreateStaff(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.CreateStaffInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.CreateStaff(req)
	if err != nil {
		respondError(c, err, "create user")
		return
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info("Staff account created", map[string]interface{}{
		"user_id":    user.ID,
		"role":       user.Role,
		"created_by": adminID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"user": userResponse(user),
	})
}

// ListStaff GET /api/v1/auth/staff
func (ctrl *AuthController) ListStaff(c *gin.Context) {
	users, err := ctrl.authService.ListStaff()
	if err != nil {
		respondError(c, err, "list users")
		return
	}

	staff := make([]gin.H, 0, len(users))
	for i := range users {
		staff = append(staff, userResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"staff": staff,
		"count": len(staff),
	})
}

// SetStaffActive enables or disables an account
// PATCH /api/v1/auth/staff/:id
func (ctrl *AuthController) SetStaffActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if self, _ := middleware.GetUserID(c); self == id {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "You cannot change your own account status")
		return
	}

	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.SetStaffActive(id, *req.IsActive)
	if err != nil {
		respondError(c, err, "update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}
