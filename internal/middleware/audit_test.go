package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.OperationLog{},
	))
	return db
}

func waitForAuditLog(t *testing.T, db *gorm.DB, where string, args ...interface{}) *models.OperationLog {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var log models.OperationLog
		err := db.Where(where, args...).Order("id DESC").First(&log).Error
		if err == nil {
			return &log
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("operation log not created: %s", where)
	return nil
}

func newAuditTestRouter(db *gorm.DB) *gin.Engine {
	repo := repository.NewOperationLogRepository(db)
	audit := NewAuditLogger(repo)

	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.Use(func(c *gin.Context) {
		c.Set(ContextKeyUserID, int64(1))
		c.Set(ContextKeyUserType, "admin")
		c.Next()
	})
	admin.Use(audit.Log())

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) }
	admin.POST("/settlement/periods/close", ok)
	admin.POST("/settlement/shops/:id/settle", ok)
	admin.PUT("/shops/:id/commission-rate", ok)
	admin.POST("/admins", ok)
	admin.GET("/orders", ok)
	return r
}

func TestAuditLogger_记录结算写操作(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuditTestDB(t)
	r := newAuditTestRouter(db)

	req, _ := http.NewRequest("POST", "/api/v1/admin/settlement/periods/close", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	log := waitForAuditLog(t, db, "module = ? AND action = ?", "settlement", "close_period")
	assert.Equal(t, int64(1), log.AdminID)
	assert.Nil(t, log.TargetType)

	body, _ := json.Marshal(map[string]interface{}{"notes": "线下已打款"})
	req2, _ := http.NewRequest("POST", "/api/v1/admin/settlement/shops/42/settle", bytes.NewBuffer(body))
	req2.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)

	log2 := waitForAuditLog(t, db, "module = ? AND action = ? AND target_id = ?", "settlement", "mark_settled", 42)
	require.NotNil(t, log2.TargetType)
	assert.Equal(t, "shop_settlement", *log2.TargetType)
	assert.Equal(t, "线下已打款", log2.AfterData["notes"])
}

func TestAuditLogger_记录抽成调整并带请求体(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuditTestDB(t)
	r := newAuditTestRouter(db)

	body, _ := json.Marshal(map[string]interface{}{"commission_rate": 0.15})
	req, _ := http.NewRequest("PUT", "/api/v1/admin/shops/7/commission-rate", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	log := waitForAuditLog(t, db, "action = ?", "update_commission_rate")
	require.NotNil(t, log.TargetID)
	assert.Equal(t, int64(7), *log.TargetID)
	assert.InDelta(t, 0.15, log.AfterData["commission_rate"], 1e-9)
}

func TestAuditLogger_敏感字段脱敏(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuditTestDB(t)
	r := newAuditTestRouter(db)

	body, _ := json.Marshal(map[string]interface{}{
		"username": "ops",
		"password": "super-secret",
	})
	req, _ := http.NewRequest("POST", "/api/v1/admin/admins", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	log := waitForAuditLog(t, db, "module = ? AND target_type = ?", "party", "admin")
	assert.Equal(t, "ops", log.AfterData["username"])
	assert.Equal(t, "***", log.AfterData["password"])
}

func TestAuditLogger_读操作不记录(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuditTestDB(t)
	r := newAuditTestRouter(db)

	req, _ := http.NewRequest("GET", "/api/v1/admin/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(100 * time.Millisecond)
	var count int64
	require.NoError(t, db.Model(&models.OperationLog{}).Count(&count).Error)
	assert.Zero(t, count)
}
