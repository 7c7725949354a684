package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/http/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// CORSMiddleware 跨域中间件，来源支持 *、精确匹配与 https://*.example.com 形式的子域通配
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	}
	corsCfg := cors.Config{
		AllowOriginFunc:  newOriginMatcher(cfg.AllowedOrigins),
		AllowMethods:     allowedMethods,
		AllowHeaders:     allowedHeaders,
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		corsCfg.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}
	return cors.New(corsCfg)
}

// newOriginMatcher 未配置来源时放行全部
func newOriginMatcher(patterns []string) func(origin string) bool {
	exact := make(map[string]struct{}, len(patterns))
	var suffixes []string
	for _, raw := range patterns {
		pattern := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case pattern == "":
		case pattern == "*":
			return func(string) bool { return true }
		case strings.Contains(pattern, "://*."):
			scheme, host, _ := strings.Cut(pattern, "://*")
			suffixes = append(suffixes, scheme+"://", host)
		default:
			exact[strings.TrimRight(pattern, "/")] = struct{}{}
		}
	}
	if len(exact) == 0 && len(suffixes) == 0 {
		return func(string) bool { return true }
	}
	return func(origin string) bool {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if origin == "" {
			return false
		}
		if _, ok := exact[origin]; ok {
			return true
		}
		// suffixes 按 (scheme, .host) 成对存放
		for i := 0; i+1 < len(suffixes); i += 2 {
			scheme, host := suffixes[i], suffixes[i+1]
			if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, host) && len(origin) > len(scheme)+len(host) {
				return true
			}
		}
		return false
	}
}

// RequestIDMiddleware 沿用调用方的 X-Request-ID，缺失或不合法时生成 uuid
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

// RecoveryMiddleware panic 时记录堆栈并返回 JSON 500
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		logger.Error("request_panic",
			zap.String("request_id", getRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Fail(c, response.Internal(fmt.Errorf("panic: %v", recovered)))
	})
}

// LoggerMiddleware 结构化请求日志；quietPaths 只在 debug 级别输出
func LoggerMiddleware(logger *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		switch {
		case len(c.Errors) > 0:
			log.Errorw("request", "errors", c.Errors.String())
		case status >= 500:
			log.Warnw("request")
		default:
			if _, ok := quiet[c.Request.URL.Path]; ok {
				log.Debugw("request")
				return
			}
			log.Infow("request")
		}
	}
}

func getRequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
