package service

import (
	"github.com/gin-gonic/gin"

	"github.com/docpile-ai/docpile/app/core"
	v1 "github.com/docpile-ai/docpile/app/logic/v1"
	"github.com/docpile-ai/docpile/app/response"
	"github.com/docpile-ai/docpile/cmd/service/handler"
	"github.com/docpile-ai/docpile/cmd/service/middleware"
	"github.com/docpile-ai/docpile/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func setupHttpRouter(s *handler.HttpSrv) {
	s.Engine.Use(gin.Recovery())

	s.Engine.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})
	s.Engine.GET("/metrics", metrics.Handler())

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.AcceptLanguage())
	s.Engine.Use(middleware.Metrics(s.Core))

	apiV1 := s.Engine.Group("/api/v1")
	space := apiV1.Group("/:spaceid", middleware.Authorization(s.Core), middleware.VerifySpace(s.Core))
	{
		documents := space.Group("/documents")
		{
			documents.POST("", s.CreateDocument)
			documents.GET("", s.ListDocuments)
			documents.GET("/:id", s.GetDocument)
			documents.PUT("/:id", s.UpdateDocument)
			documents.DELETE("/:id", s.DeleteDocument)
			documents.POST("/:id/retry", s.RetryDocument)
		}

		queryLimit := middleware.UseLimit(s.Core, "query", func(c *gin.Context) string {
			token, _ := v1.InjectTokenClaim(c)
			return "query:" + token.User
		}, 60)
		space.POST("/query", queryLimit, s.Query)
	}
}
