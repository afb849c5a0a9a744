package main

import (
	"strconv"

	"finman/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	auth.POST("/register", registerHandler)
	auth.POST("/login", loginHandler)
	auth.POST("/refresh", refreshHandler)
	auth.POST("/logout", logoutHandler)

	api := r.Group("")
	api.Use(jwtAuthMiddleware())

	api.GET("/accounts", listAccountsHandler)
	api.GET("/accounts/:id", getAccountHandler)
	api.POST("/accounts", createAccountHandler)
	api.PUT("/accounts/:id", updateAccountHandler)
	api.DELETE("/accounts/:id", deleteAccountHandler)

	api.GET("/categories", listCategoriesHandler)
	api.POST("/categories", createCategoryHandler)
	api.PUT("/categories/:id", updateCategoryHandler)
	api.DELETE("/categories/:id", deleteCategoryHandler)

	api.GET("/transactions", listTransactionsHandler)
	api.GET("/transactions/:id", getTransactionHandler)
	api.POST("/transactions", createTransactionHandler)
	api.PUT("/transactions/:id", updateTransactionHandler)
	api.DELETE("/transactions/:id", deleteTransactionHandler)

	api.GET("/budgets", listBudgetsHandler)
	api.POST("/budgets", upsertBudgetHandler)
	api.DELETE("/budgets/:id", deleteBudgetHandler)

	api.GET("/reports/summary", summaryReportHandler)
	api.GET("/reports/by-category", categorySpendingReportHandler)
	api.GET("/reports/trends", trendsReportHandler)

	api.GET("/users/me", getCurrentUserHandler)
	api.PUT("/users/me", updateCurrentUserHandler)
	api.PUT("/users/me/password", changePasswordHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			respondError(c, errUnauthorized("missing or invalid Authorization header"))
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			respondError(c, errUnauthorized("invalid token"))
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondError(c, errUnauthorized("invalid claims"))
			c.Abort()
			return
		}
		sub, _ := claims["sub"].(float64)
		if sub < 1 {
			respondError(c, errUnauthorized("invalid claims"))
			c.Abort()
			return
		}
		c.Set("userID", uint(sub))
		c.Next()
	}
}

// getUserFromContext fetches the currently authenticated user using the id set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	idVal, ok := c.Get("userID")
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, idVal.(uint)).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// requireUser resolves the caller or writes a 401 and returns false.
func requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		respondError(c, errUnauthorized("user not found"))
		return nil, false
	}
	return user, true
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errValidation("invalid id")
	}
	return uint(id), nil
}
