package handlers

import (
	"net/http"
	"strings"

	"marketChat/internal/errs"
	"marketChat/internal/models"
	"marketChat/internal/msgs"
	"marketChat/internal/utils"

	"github.com/gin-gonic/gin"
)

// MustAuthenticateMiddleware resolves the caller from a Bearer token and
// stores the user id in the gin context.
func MustAuthenticateMiddleware(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		jwtToken := strings.TrimSpace(ctx.GetHeader("Authorization"))
		jwtToken = strings.TrimSpace(strings.TrimPrefix(jwtToken, "Bearer "))

		if jwtToken == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Message: msgs.MsgYouMustLoginFirst,
				Errors:  errs.Messages(errs.ErrUnauthorized),
			})
			return
		}

		claims, err := utils.VerifyToken(jwtToken, secret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Message: msgs.MsgYouMustLoginFirst,
				Errors:  errs.Messages(errs.ErrInvalidToken),
			})
			return
		}

		ctx.Set(utils.ContextUserID, claims.Subject)
		ctx.Next()
	}
}
