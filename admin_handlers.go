package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// requireAdmin guards the dataset administration endpoints with a bearer
// token signed by APP_SIGNING_SECRET. Tokens are minted out of band (see
// cmd/gen_token).
func (a *App) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Admin token required"})
			c.Abort()
			return
		}
		email, err := a.verifyAdminToken(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Invalid admin token"})
			c.Abort()
			return
		}
		c.Set("adminEmail", email)
		c.Next()
	}
}

func (a *App) createAdminToken(email string) (string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"role":  "admin",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(adminTokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.AppSigningSecret))
}

func (a *App) verifyAdminToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(a.cfg.AppSigningSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if email == "" || role != "admin" {
		return "", fmt.Errorf("invalid token payload")
	}
	return email, nil
}

// handleDatasetReload runs one guarded load attempt. A failed fetch keeps the
// previously served dataset and reports the failure; a reload that lost to a
// newer attempt reports fine, the newer data is already in place.
func (a *App) handleDatasetReload(c *gin.Context) {
	if err := a.reloadDataset(c.Request.Context()); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadGateway, Code: "dataset_reload_failed", Message: err.Error()})
		return
	}
	ds, loadedAt, generation := a.dataset.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     "reloaded",
		"provinces":  len(ds.Provinces),
		"regencies":  len(ds.Regencies),
		"districts":  len(ds.Districts),
		"loaded_at":  loadedAt,
		"generation": generation,
	})
}

func (a *App) handleDatasetStatus(c *gin.Context) {
	ds, loadedAt, generation := a.dataset.snapshot()
	if ds == nil {
		c.JSON(http.StatusOK, gin.H{"status": "loading", "source": a.provider.Source()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"source":     a.provider.Source(),
		"provinces":  len(ds.Provinces),
		"regencies":  len(ds.Regencies),
		"districts":  len(ds.Districts),
		"loaded_at":  loadedAt,
		"generation": generation,
	})
}
