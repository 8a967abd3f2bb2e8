package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"edupoint-crm/config"
	"edupoint-crm/internal/routes"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type routerT = *gin.Engine

// setupRouter builds the full API route tree against a fresh in-memory
// database. The auth middleware is replaced by an identity shim that trusts
// the X-User-ID header; everything past it (the access policy table included)
// is the production wiring.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.AutoMigrate(db))

	config.DB = db
	config.RDB = nil

	r := gin.New()
	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		if id, err := strconv.Atoi(c.GetHeader("X-User-ID")); err == nil {
			var user models.User
			if err := config.DB.First(&user, id).Error; err == nil {
				c.Set("user_id", user.ID)
				c.Set("userName", user.Name)
				c.Set("userEmail", user.Email)
				c.Set("role", user.Role)
			}
		}
		c.Next()
	})
	routes.RegisterAPIRoutes(authed)
	return r
}

func createUser(t *testing.T, name string, role models.Role) models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@edupoint.test",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, config.DB.Create(&user).Error)
	return user
}

func createCourse(t *testing.T, name string, fee float64) models.Course {
	t.Helper()
	course := models.Course{
		CourseID:   fmt.Sprintf("CRS-T-%s", name),
		Name:       name,
		Category:   name,
		RegularFee: fee,
	}
	require.NoError(t, config.DB.Create(&course).Error)
	return course
}

// doJSON performs a request as the given user and decodes the JSON response
// body into a map.
func doJSON(t *testing.T, r *gin.Engine, method, path string, asUser models.User, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if asUser.ID != 0 {
		req.Header.Set("X-User-ID", strconv.Itoa(int(asUser.ID)))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func errCode(body map[string]interface{}) string {
	code, _ := body["code"].(string)
	return code
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
