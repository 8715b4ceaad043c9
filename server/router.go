package server

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (s *Server) setupRouter() *gin.Engine {
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  s.Config.WSReadBufferSize,
		WriteBufferSize: s.Config.WSWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))
	s.defineRoutes(r)

	return r
}

func (s *Server) corsConfig() cors.Config {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if s.Config.AccessControlAllowOrigin == "" || s.Config.AccessControlAllowOrigin == "*" {
		conf.AllowAllOrigins = true
		conf.AllowCredentials = false
		return conf
	}
	conf.AllowOrigins = strings.Split(s.Config.AccessControlAllowOrigin, ",")
	return conf
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: s.Config.RateLimitPerSecond,
	})
	limitRate := limitRateBySender(store)

	router.GET("/ws", s.handleSocket())

	apirouter := router.Group("/api/v1")
	apirouter.GET("/health", s.handleHealth())

	apirouter.GET("/messages", s.handleGetMessages())
	apirouter.POST("/messages", limitRate, s.handleSendMessage())

	apirouter.GET("/accounts", s.handleSearchAccounts())

	apirouter.POST("/chats", s.handleCreateChat())
	apirouter.GET("/chats", s.handleListChats())
	apirouter.GET("/chats/:id", s.handleGetChat())
	apirouter.PUT("/chats/:id", s.handleUpdateChat())

	apirouter.POST("/push/subscribe", s.handleSubscribe())
	apirouter.GET("/push/subscribe", s.handleGetSubscription())
	apirouter.DELETE("/push/subscribe", s.handleUnsubscribe())
	apirouter.POST("/push/send", limitRate, s.handleSendPush())
}
