package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/escortdollars/affiliate-backend/internal/models"
)

type checkerStub struct {
	grants map[string]map[string]bool
}

func (c *checkerStub) HasPermission(roleCode, permissionCode string) bool {
	return c.grants[roleCode][permissionCode]
}

func (c *checkerStub) HasAnyPermission(roleCode string, permissionCodes []string) bool {
	for _, code := range permissionCodes {
		if c.HasPermission(roleCode, code) {
			return true
		}
	}
	return false
}

func (c *checkerStub) HasAllPermissions(roleCode string, permissionCodes []string) bool {
	for _, code := range permissionCodes {
		if !c.HasPermission(roleCode, code) {
			return false
		}
	}
	return true
}

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(ContextKeyRole, role)
		}
		c.Next()
	}
}

func permissionRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := &checkerStub{grants: map[string]map[string]bool{
		models.UserTypeAdministrator: {PermissionCommissionApprove: true},
	}}

	tests := []struct {
		name     string
		role     string
		wantCode int
	}{
		{"有权限的角色", models.UserTypeAdministrator, http.StatusOK},
		{"无权限的角色", models.UserTypeAmbassador, http.StatusForbidden},
		{"未登录", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(withRole(tt.role))
			r.GET("/approve", RequirePermission(checker, PermissionCommissionApprove), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"code": 0})
			})

			w := permissionRequest(r, "/approve")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireAnyPermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := &checkerStub{grants: map[string]map[string]bool{
		"operator": {PermissionPayoutList: true},
	}}

	r := gin.New()
	r.Use(withRole("operator"))
	r.GET("/payouts", RequireAnyPermission(checker, PermissionPayoutProcess, PermissionPayoutList), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	r.GET("/process", RequireAllPermissions(checker, PermissionPayoutProcess, PermissionPayoutList), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	assert.Equal(t, http.StatusOK, permissionRequest(r, "/payouts").Code)
	assert.Equal(t, http.StatusForbidden, permissionRequest(r, "/process").Code)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		role     string
		wantCode int
	}{
		{"管理员角色", models.UserTypeAdministrator, http.StatusOK},
		{"大使角色被拒", models.UserTypeAmbassador, http.StatusForbidden},
		{"未登录", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(withRole(tt.role))
			r.GET("/admin", RequireRoles(models.UserTypeAdministrator), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"code": 0})
			})

			w := permissionRequest(r, "/admin")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(withRole("super_admin"))
	r.GET("/system", RequireSuperAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	assert.Equal(t, http.StatusOK, permissionRequest(r, "/system").Code)

	r2 := gin.New()
	r2.Use(withRole(models.UserTypeAdministrator))
	r2.GET("/system", RequireSuperAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	assert.Equal(t, http.StatusForbidden, permissionRequest(r2, "/system").Code)
}
