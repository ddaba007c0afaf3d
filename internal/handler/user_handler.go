package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kmatek/photoalbum-api/internal/service"
	"github.com/kmatek/photoalbum-api/pkg/response"
)

type UserHandler struct {
	accounts service.AccountService
}

func NewUserHandler(accounts service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (h *UserHandler) Register(c *gin.Context) {
	var input service.RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"email":     user.Email,
		"name":      user.Name,
		"is_active": user.IsActive,
	})
}

func (h *UserHandler) Activate(c *gin.Context) {
	uidToken := c.Param("uid")
	token := c.Param("token")

	if err := h.accounts.Activate(c.Request.Context(), uidToken, token); err != nil {
		response.ResponseTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "account activated"})
}

func (h *UserHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.accounts.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.accounts.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type changePasswordInput struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input changePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), userID, input.Password, input.NewPassword); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "password changed"})
}

type resetRequestInput struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	var input resetRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Unauthenticated endpoint, throttled per client address.
	err := h.accounts.RequestPasswordReset(c.Request.Context(), input.Email, c.ClientIP())
	if err != nil {
		response.ResponseTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "password reset email sent"})
}

type resetConfirmInput struct {
	UserID      string `json:"user_id" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *UserHandler) ConfirmPasswordReset(c *gin.Context) {
	var input resetConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.accounts.ConfirmPasswordReset(c.Request.Context(), input.UserID, input.Token, input.NewPassword)
	if err != nil {
		response.ResponseTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "password has been reset"})
}

func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer f.Close()

	user, err := h.accounts.UploadProfileImage(c.Request.Context(), userID, file.Filename, f)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": user.ImagePath})
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
