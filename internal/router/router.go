package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/handler"
	"github.com/blues/ivs/internal/logic"
	"github.com/blues/ivs/internal/metrics"
)

// HealthChecker 外部依赖健康检查
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// Options 路由依赖
type Options struct {
	DB      *gorm.DB
	Voting  *logic.VotingLogic
	Metrics *metrics.VotingMetrics
	Server  config.ServerConfig
	Chain   HealthChecker
}

func Setup(opts Options) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(accessLogMiddleware(opts.Metrics))
	r.Use(corsMiddleware())
	if opts.Server.RateLimit > 0 {
		r.Use(rateLimitMiddleware(opts.Server.RateLimit, opts.Server.Burst))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": "investment-voting-service",
			"phase":   opts.Voting.Phase().String(),
		}
		if opts.Chain != nil {
			status["chain"] = opts.Chain.GetHealthStatus(c.Request.Context())
		}
		c.JSON(http.StatusOK, status)
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// API版本组
	v1 := r.Group("/api/v1")
	{
		votingHandler := handler.NewVotingHandler(opts.Voting)
		v1.POST("/voters", votingHandler.RegisterVoter)
		v1.GET("/participants/:address", votingHandler.GetParticipant)
		v1.POST("/proposals", votingHandler.SubmitProposal)
		v1.GET("/proposals", votingHandler.ListProposals)
		v1.POST("/votes", votingHandler.Vote)
		v1.GET("/votes/:address", votingHandler.GetVote)
		v1.GET("/phase", votingHandler.GetPhase)
		v1.POST("/phase/advance", votingHandler.AdvancePhase)
		v1.GET("/winner", votingHandler.GetWinner)

		fundingHandler := handler.NewFundingHandler(opts.Voting)
		v1.POST("/contributions", fundingHandler.Contribute)
		v1.POST("/reward-params", fundingHandler.SetRewardParams)
		v1.GET("/settlement", fundingHandler.GetSettlement)
		v1.GET("/balances/:address", fundingHandler.GetBalances)

		// 记录查询
		contributeHandler := handler.NewContributeRecordHandler(opts.DB)
		v1.GET("/contributions", contributeHandler.GetContributeRecords)
		v1.GET("/contributions/stats", contributeHandler.GetContributeStatistics)

		refundHandler := handler.NewRefundRecordHandler(opts.DB)
		refunds := v1.Group("/refunds")
		{
			refunds.GET("", refundHandler.GetRefunds)
			refunds.GET("/stats", refundHandler.GetRefundStatistics)
			refunds.GET("/:address", refundHandler.GetRefundByAddress)
		}
		v1.GET("/settlement/record", refundHandler.GetSettlementRecord)

		eventHandler := handler.NewEventHandler(opts.DB)
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.GetEvents)
			events.GET("/stats", eventHandler.GetEventStatistics)
			events.GET("/:id", eventHandler.GetEvent)
		}
	}

	return r
}
