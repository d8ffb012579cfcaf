package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/middleware"
	"github.com/edulane/lms-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func userInfoFromContext(c *gin.Context) models.UserInfo {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.UserInfo{}
	}
	return models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
}
