package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finman/models"
)

// authResponse is returned by register, login and refresh.
type authResponse struct {
	Token        string `json:"token"`
	Type         string `json:"type"`
	RefreshToken string `json:"refreshToken"`
	UserID       uint   `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

func buildAuthResponse(tx *gorm.DB, user *models.User) (authResponse, error) {
	token, err := issueAccessToken(user)
	if err != nil {
		return authResponse{}, err
	}
	refresh, err := createAndStoreRefreshToken(tx, user.ID)
	if err != nil {
		return authResponse{}, err
	}
	return authResponse{
		Token:        token,
		Type:         "Bearer",
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
	}, nil
}

func registerHandler(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	user, err := RegisterUser(req.Email, req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := buildAuthResponse(db, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := buildAuthResponse(db, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		respondError(c, errUnauthorized("invalid or expired refresh token"))
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		respondError(c, errUnauthorized("user not found"))
		return
	}
	// rotate: the revoke and the replacement commit together, so a failed
	// issue never leaves the caller without a usable refresh token
	var resp authResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true).Error; err != nil {
			return err
		}
		var err error
		resp, err = buildAuthResponse(tx, &user)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// logoutHandler revokes a refresh token so it can no longer be exchanged.
func logoutHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		respondError(c, errNotFound("RefreshToken", "token", "<redacted>"))
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
