// Package middleware 提供 HTTP 中间件
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/jwt"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
)

// OperationLogger 房东操作日志中间件，异步落库记录写操作
type OperationLogger struct {
	repo *repository.OperationLogRepository
}

// NewOperationLogger 创建操作日志中间件
func NewOperationLogger(repo *repository.OperationLogRepository) *OperationLogger {
	return &OperationLogger{repo: repo}
}

// OperationConfig 单个路由的日志配置
type OperationConfig struct {
	Module      string
	Action      string
	TargetType  string
	GetTargetID func(*gin.Context) *int64
}

// moduleActionMap 路由到操作的映射
var moduleActionMap = map[string]OperationConfig{
	"POST /tenant/properties": {
		Module:     "property",
		Action:     "create",
		TargetType: "property",
	},
	"PUT /tenant/properties/:id": {
		Module:     "property",
		Action:     "update",
		TargetType: "property",
	},
	"DELETE /tenant/properties/:id": {
		Module:     "property",
		Action:     "delete",
		TargetType: "property",
	},
	"POST /tenant/categories": {
		Module:     "category",
		Action:     "create",
		TargetType: "room_category",
	},
	"PUT /tenant/categories/:id": {
		Module:     "category",
		Action:     "update",
		TargetType: "room_category",
	},
	"DELETE /tenant/categories/:id": {
		Module:     "category",
		Action:     "delete",
		TargetType: "room_category",
	},
	"PUT /tenant/categories/:id/inventory": {
		Module:     "inventory",
		Action:     "adjust",
		TargetType: "room_category",
	},
}

// Log 返回操作日志中间件
func (l *OperationLogger) Log() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.shouldLog(c) {
			c.Next()
			return
		}

		// 读取请求体
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		// 执行处理
		c.Next()

		// 记录日志（异步）
		go l.logOperation(c, requestBody)
	}
}

// shouldLog 判断是否需要记录日志
func (l *OperationLogger) shouldLog(c *gin.Context) bool {
	method := c.Request.Method
	// 只记录写操作
	return method == "POST" || method == "PUT" || method == "DELETE" || method == "PATCH"
}

// logOperation 记录操作日志
func (l *OperationLogger) logOperation(c *gin.Context, requestBody []byte) {
	if l.repo == nil {
		return
	}

	// 获取路由配置
	path := c.FullPath()
	routeKey := c.Request.Method + " " + path
	config, ok := moduleActionMap[routeKey]
	if !ok && strings.HasPrefix(path, "/api/v1") {
		// 兼容路由组前缀差异：Gin full path 包含 /api/v1 前缀
		altKey := c.Request.Method + " " + strings.TrimPrefix(path, "/api/v1")
		config, ok = moduleActionMap[altKey]
	}
	if !ok {
		config = l.getDefaultConfig(c)
	}

	// 获取房东 ID
	tenantID, ok := l.getTenantID(c)
	if !ok {
		return
	}

	// 构建日志记录
	log := &models.OperationLog{
		UserID: tenantID,
		Module: config.Module,
		Action: config.Action,
		IP:     c.ClientIP(),
	}

	// 设置 User-Agent
	userAgent := c.Request.UserAgent()
	if userAgent != "" {
		log.UserAgent = &userAgent
	}

	// 设置目标类型和 ID
	if config.TargetType != "" {
		log.TargetType = &config.TargetType
		if config.GetTargetID != nil {
			log.TargetID = config.GetTargetID(c)
		} else if targetID := l.getTargetID(c); targetID != nil {
			log.TargetID = targetID
		}
	}

	// 设置请求数据，过滤敏感字段
	if len(requestBody) > 0 {
		var data interface{}
		if err := json.Unmarshal(requestBody, &data); err == nil {
			filteredData := l.filterSensitiveData(data)
			if mapData, ok := filteredData.(map[string]interface{}); ok {
				log.AfterData = models.JSON(mapData)
			}
		}
	}

	// 保存日志
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.repo.Create(ctx, log)
}

// getTenantID 从上下文获取房东 ID
func (l *OperationLogger) getTenantID(c *gin.Context) (int64, bool) {
	userType, _ := c.Get(ContextKeyUserType)
	if userTypeStr, ok := userType.(string); !ok || userTypeStr != jwt.UserTypeTenant {
		return 0, false
	}
	if v, ok := c.Get(ContextKeyUserID); ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return 0, false
}

// getDefaultConfig 未配置的路由按路径和方法推断
func (l *OperationLogger) getDefaultConfig(c *gin.Context) OperationConfig {
	path := c.FullPath()
	method := c.Request.Method

	module := "unknown"
	if strings.Contains(path, "/properties") {
		module = "property"
	} else if strings.Contains(path, "/categories") {
		module = "category"
	} else if strings.Contains(path, "/orders") {
		module = "order"
	}

	action := "unknown"
	switch method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	}

	return OperationConfig{
		Module: module,
		Action: action,
	}
}

// getTargetID 从路径参数获取目标 ID
func (l *OperationLogger) getTargetID(c *gin.Context) *int64 {
	idStr := c.Param("id")
	if idStr == "" {
		return nil
	}

	if id, err := json.Number(idStr).Int64(); err == nil {
		return &id
	}
	return nil
}

// filterSensitiveData 过滤敏感数据
func (l *OperationLogger) filterSensitiveData(data interface{}) interface{} {
	sensitiveFields := []string{
		"password", "old_password", "new_password", "confirm_password",
		"token", "access_token", "refresh_token",
		"secret", "api_key", "api_secret",
		"bank_account", "bank_holder", "id_card",
	}

	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})
		for key, value := range v {
			lowerKey := strings.ToLower(key)
			isSensitive := false
			for _, sf := range sensitiveFields {
				if strings.Contains(lowerKey, sf) {
					isSensitive = true
					break
				}
			}
			if isSensitive {
				result[key] = "***"
			} else {
				result[key] = l.filterSensitiveData(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = l.filterSensitiveData(item)
		}
		return result
	default:
		return data
	}
}
