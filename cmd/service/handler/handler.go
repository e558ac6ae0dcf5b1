package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/docpile-ai/docpile/app/core"
)

type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}
