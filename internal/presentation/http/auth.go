package httppresentation

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appstore "github.com/storecraft-labs/order-intake/internal/application/store"
)

var errTokenMissing = errors.New("auth: bearer token missing")

// planDetails mirrors the subscription block issued by the auth provider.
type planDetails struct {
	StoresAllowed       int   `json:"storesAllowed"`
	SubscriptionEndDate int64 `json:"subscriptionEndDate"`
}

type subscriptionClaims struct {
	jwt.RegisteredClaims
	IsSubscribed bool        `json:"isSubscribed"`
	Plan         planDetails `json:"planDetails"`
}

// caller extracts the authenticated owner and their plan snapshot from the
// Authorization header.
func (h *Handler) caller(c *gin.Context) (string, appstore.Subscription, error) {
	header := c.GetHeader("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", appstore.Subscription{}, errTokenMissing
	}

	claims := &subscriptionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(h.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", appstore.Subscription{}, err
	}

	sub := appstore.Subscription{
		Subscribed:    claims.IsSubscribed,
		StoresAllowed: claims.Plan.StoresAllowed,
	}
	if claims.Plan.SubscriptionEndDate > 0 {
		sub.ExpiresAt = time.UnixMilli(claims.Plan.SubscriptionEndDate).UTC()
	}
	return claims.Subject, sub, nil
}
