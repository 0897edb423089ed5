// Package middleware 提供 HTTP 中间件
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/delivery-market-backend/internal/common/jwt"
	"github.com/dumeirei/delivery-market-backend/internal/models"
	"github.com/dumeirei/delivery-market-backend/internal/repository"
)

// AuditLogger 管理端操作审计中间件
type AuditLogger struct {
	repo *repository.OperationLogRepository
}

// NewAuditLogger 创建审计中间件
func NewAuditLogger(repo *repository.OperationLogRepository) *AuditLogger {
	return &AuditLogger{repo: repo}
}

// auditRoute 路由对应的审计归类
type auditRoute struct {
	Module     string
	Action     string
	TargetType string
}

// 管理端写操作的审计映射，键为 "METHOD /admin 下的路径"
var auditRouteMap = map[string]auditRoute{
	"POST /admin/settlement/periods/close": {
		Module: "settlement",
		Action: "close_period",
	},
	"POST /admin/settlement/shops/:id/settle": {
		Module:     "settlement",
		Action:     "mark_settled",
		TargetType: "shop_settlement",
	},
	"POST /admin/settlement/riders/:id/settle": {
		Module:     "settlement",
		Action:     "mark_settled",
		TargetType: "rider_settlement",
	},
	"POST /admin/shops": {
		Module:     "party",
		Action:     "create",
		TargetType: "shop",
	},
	"PUT /admin/shops/:id/commission-rate": {
		Module:     "party",
		Action:     "update_commission_rate",
		TargetType: "shop",
	},
	"POST /admin/riders": {
		Module:     "party",
		Action:     "create",
		TargetType: "rider",
	},
	"POST /admin/customers/:id/points/adjust": {
		Module:     "points",
		Action:     "adjust",
		TargetType: "customer",
	},
	"POST /admin/admins": {
		Module:     "party",
		Action:     "create",
		TargetType: "admin",
	},
}

// Log 审计中间件处理函数
func (l *AuditLogger) Log() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.shouldLog(c) {
			c.Next()
			return
		}

		// 读取并还原请求体
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		// 异步落库，不阻塞响应
		go l.record(c.Copy(), requestBody)
	}
}

// shouldLog 仅记录写操作
func (l *AuditLogger) shouldLog(c *gin.Context) bool {
	switch c.Request.Method {
	case "POST", "PUT", "DELETE", "PATCH":
		return true
	}
	return false
}

// record 写入一条审计记录
func (l *AuditLogger) record(c *gin.Context, requestBody []byte) {
	if l.repo == nil {
		return
	}

	adminID, ok := l.adminID(c)
	if !ok {
		return
	}

	path := c.FullPath()
	routeKey := c.Request.Method + " " + strings.TrimPrefix(path, "/api/v1")
	route, ok := auditRouteMap[routeKey]
	if !ok {
		route = l.inferRoute(c)
	}

	log := &models.OperationLog{
		AdminID: adminID,
		Module:  route.Module,
		Action:  route.Action,
		IP:      c.ClientIP(),
	}

	if ua := c.Request.UserAgent(); ua != "" {
		log.UserAgent = &ua
	}
	if route.TargetType != "" {
		log.TargetType = &route.TargetType
		if id := l.targetID(c); id != nil {
			log.TargetID = id
		}
	}
	if len(requestBody) > 0 {
		var data interface{}
		if err := json.Unmarshal(requestBody, &data); err == nil {
			if mapData, ok := filterSensitive(data).(map[string]interface{}); ok {
				log.AfterData = mapData
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.repo.Create(ctx, log)
}

// adminID 从认证中间件写入的上下文取管理员 ID
func (l *AuditLogger) adminID(c *gin.Context) (int64, bool) {
	userType, _ := c.Get(ContextKeyUserType)
	if t, ok := userType.(string); !ok || t != jwt.UserTypeAdmin {
		return 0, false
	}
	if v, ok := c.Get(ContextKeyUserID); ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return 0, false
}

// inferRoute 未登记的路由按路径与方法推断归类
func (l *AuditLogger) inferRoute(c *gin.Context) auditRoute {
	path := c.FullPath()

	module := "unknown"
	switch {
	case strings.Contains(path, "/settlement"):
		module = "settlement"
	case strings.Contains(path, "/orders"):
		module = "order"
	case strings.Contains(path, "/points"):
		module = "points"
	case strings.Contains(path, "/shops"), strings.Contains(path, "/riders"),
		strings.Contains(path, "/customers"), strings.Contains(path, "/admins"):
		module = "party"
	}

	action := "unknown"
	switch c.Request.Method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	}

	return auditRoute{Module: module, Action: action}
}

// targetID 从路径参数取目标 ID
func (l *AuditLogger) targetID(c *gin.Context) *int64 {
	idStr := c.Param("id")
	if idStr == "" {
		return nil
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// filterSensitive 递归脱敏请求数据中的敏感字段
func filterSensitive(data interface{}) interface{} {
	sensitiveFields := []string{
		"password", "old_password", "new_password",
		"token", "access_token", "refresh_token",
		"secret",
	}

	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			lowerKey := strings.ToLower(key)
			masked := false
			for _, sf := range sensitiveFields {
				if strings.Contains(lowerKey, sf) {
					masked = true
					break
				}
			}
			if masked {
				result[key] = "***"
			} else {
				result[key] = filterSensitive(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = filterSensitive(item)
		}
		return result
	default:
		return data
	}
}
