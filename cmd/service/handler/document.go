package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/docpile-ai/docpile/app/logic/v1"
	"github.com/docpile-ai/docpile/app/response"
	"github.com/docpile-ai/docpile/pkg/errors"
	"github.com/docpile-ai/docpile/pkg/i18n"
	"github.com/docpile-ai/docpile/pkg/types"
	"github.com/docpile-ai/docpile/pkg/utils"
)

// CreateDocument accepts a multipart upload and registers it for ingestion.
// The response carries the document in processing state.
func (s *HttpSrv) CreateDocument(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.APIError(c, errors.New("HttpSrv.CreateDocument.FormFile", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest))
		return
	}
	defer file.Close()

	limit := int64(s.Core.Cfg().RAG.UploadSizeLimitMB) << 20
	if header.Size > limit {
		response.APIError(c, errors.New("HttpSrv.CreateDocument.size", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusRequestEntityTooLarge))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		response.APIError(c, errors.New("HttpSrv.CreateDocument.ReadAll", i18n.ERROR_INTERNAL, err))
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}

	mimeType := c.PostForm("mime_type")
	if mimeType == "" {
		mimeType = header.Header.Get("Content-Type")
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).CreateDocument(spaceID, v1.CreateDocumentArgs{
		Name:     name,
		Category: c.PostForm("category"),
		MimeType: mimeType,
		Raw:      raw,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

type ListDocumentsRequest struct {
	Category string `form:"category"`
	Page     uint64 `form:"page"`
	PageSize uint64 `form:"pagesize"`
}

type ListDocumentsResponse struct {
	List  []types.Document `json:"list"`
	Total uint64           `json:"total"`
}

func (s *HttpSrv) ListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	spaceID, _ := v1.InjectSpaceID(c)
	list, total, err := v1.NewDocumentLogic(c, s.Core).ListDocuments(spaceID, req.Category, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListDocumentsResponse{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetDocument(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)
	doc, err := v1.NewDocumentLogic(c, s.Core).GetDocument(spaceID, c.Param("id"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

type UpdateDocumentRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (s *HttpSrv) UpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	doc, err := v1.NewDocumentLogic(c, s.Core).UpdateDocument(spaceID, c.Param("id"), types.UpdateDocumentArgs{
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

func (s *HttpSrv) DeleteDocument(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)
	if err := v1.NewDocumentLogic(c, s.Core).DeleteDocument(spaceID, c.Param("id")); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) RetryDocument(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)
	doc, err := v1.NewDocumentLogic(c, s.Core).RetryDocument(spaceID, c.Param("id"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}
