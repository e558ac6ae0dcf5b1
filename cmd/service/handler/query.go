package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/docpile-ai/docpile/app/logic/v1"
	"github.com/docpile-ai/docpile/app/response"
	"github.com/docpile-ai/docpile/pkg/utils"
)

type QueryRequest struct {
	Query    string `json:"query" binding:"required"`
	Category string `json:"category"`
}

func (s *HttpSrv) Query(c *gin.Context) {
	var req QueryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	answer, err := v1.NewQueryLogic(c, s.Core).Query(spaceID, req.Query, req.Category)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, answer)
}
