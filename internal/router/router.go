package router

import (
	"github.com/blues/livepay/internal/event"
	"github.com/blues/livepay/internal/handler"
	"github.com/blues/livepay/internal/logic"
	"github.com/blues/livepay/internal/session"
	"github.com/gin-gonic/gin"
)

// Deps 路由依赖
type Deps struct {
	Coordinator *session.Coordinator
	Balances    *logic.BalanceLogic
	Ledger      *logic.LedgerLogic
	Rates       *logic.RateLogic
	Bus         *event.Bus
}

func Setup(deps Deps) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "livepay",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 会话相关路由
		sessionHandler := handler.NewSessionHandler(deps.Coordinator, deps.Rates, deps.Bus)
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/join", sessionHandler.Join)
			sessions.POST("/:id/leave", sessionHandler.Leave)
			sessions.POST("/:id/stop", sessionHandler.Stop)
		}

		// 打赏触发
		tipHandler := handler.NewTipHandler(deps.Bus)
		v1.POST("/tips", tipHandler.CreateTip)

		// 余额查询
		balanceHandler := handler.NewBalanceHandler(deps.Balances)
		v1.GET("/subjects/:id/balance", balanceHandler.GetBalance)

		// 收益台账
		earningHandler := handler.NewEarningHandler(deps.Ledger)
		earnings := v1.Group("/earnings")
		{
			earnings.GET("", earningHandler.GetEarnings)
			earnings.GET("/stats", earningHandler.GetEarningStats)
			earnings.PUT("/:id/payout-status", earningHandler.UpdatePayoutStatus)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
