package middleware

import (
	"net/http"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/apierror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TenantKey = "tenant"

// TenantScope parses the company/branch/user IDs out of the validated claims
// and stores a tenant.Context in the Gin context. Must run after JWTAuth.
// Tokens with malformed IDs are rejected outright rather than falling through
// to an unscoped query.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		companyID, err1 := uuid.Parse(claims.CompanyID)
		branchID, err2 := uuid.Parse(claims.BranchID)
		userID, err3 := uuid.Parse(claims.UserID)
		if err1 != nil || err2 != nil || err3 != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		tc := tenant.Context{CompanyID: companyID, BranchID: branchID, UserID: userID}
		if !tc.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		c.Set(TenantKey, tc)
		c.Next()
	}
}

// GetTenant retrieves the resolved tenant scope from the Gin context.
func GetTenant(c *gin.Context) tenant.Context {
	tc, _ := c.MustGet(TenantKey).(tenant.Context)
	return tc
}
