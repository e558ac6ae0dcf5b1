package v1

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/pkg/errors"
	"github.com/docpile-ai/docpile/pkg/extract"
	"github.com/docpile-ai/docpile/pkg/i18n"
	"github.com/docpile-ai/docpile/pkg/safe"
	"github.com/docpile-ai/docpile/pkg/types"
	"github.com/docpile-ai/docpile/pkg/utils"
)

type DocumentLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewDocumentLogic(ctx context.Context, core *core.Core) *DocumentLogic {
	return &DocumentLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type CreateDocumentArgs struct {
	Name     string
	Category string
	MimeType string
	Raw      []byte
}

// CreateDocument registers the upload as a processing document and kicks the
// ingestion pipeline in the background. The caller gets the document back
// immediately and polls its status.
func (l *DocumentLogic) CreateDocument(spaceID string, args CreateDocumentArgs) (*types.Document, error) {
	if err := l.VerifySpace(spaceID); err != nil {
		return nil, err
	}
	if len(args.Raw) == 0 {
		return nil, errors.New("DocumentLogic.CreateDocument.EmptyBody", i18n.ERROR_DOCUMENT_EMPTY, nil).Code(http.StatusBadRequest)
	}
	if !extract.Supported(args.MimeType) {
		return nil, errors.New("DocumentLogic.CreateDocument.MimeType", i18n.ERROR_DOCUMENT_UNSUPPORTED, nil).Code(http.StatusBadRequest)
	}

	doc := types.Document{
		ID:        utils.GenUniqIDStr(),
		SpaceID:   spaceID,
		UserID:    l.GetUserInfo().User,
		Name:      args.Name,
		Category:  args.Category,
		MimeType:  args.MimeType,
		Status:    types.DOCUMENT_STATUS_PROCESSING,
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}

	// Storage failures only cost the public URL and the retry source, they
	// never block indexing.
	doc.StorageKey = fmt.Sprintf("%s/%s/%s", spaceID, doc.ID, args.Name)
	url, err := l.core.FileStorage().Upload(l.ctx, doc.StorageKey, bytes.NewReader(args.Raw))
	if err != nil {
		slog.Warn("failed to upload document source", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
		doc.StorageKey = ""
	}
	doc.URL = url

	if err := l.core.Store().DocumentStore().Create(l.ctx, doc); err != nil {
		return nil, errors.New("DocumentLogic.CreateDocument.DocumentStore.Create", i18n.ERROR_INTERNAL, err)
	}

	ingester := NewIngester(l.core)
	go safe.Run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*10)
		defer cancel()
		if err := ingester.Ingest(ctx, &doc, args.Raw); err != nil {
			slog.Error("document ingestion failed",
				slog.String("space_id", doc.SpaceID),
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
		}
	})

	return &doc, nil
}

func (l *DocumentLogic) GetDocument(spaceID, id string) (*types.Document, error) {
	if err := l.VerifySpace(spaceID); err != nil {
		return nil, err
	}

	data, err := l.core.Store().DocumentStore().GetDocument(l.ctx, spaceID, id)
	if err != nil {
		return nil, errors.New("DocumentLogic.GetDocument.DocumentStore.GetDocument", i18n.ERROR_INTERNAL, err)
	}
	if data == nil {
		return nil, errors.New("DocumentLogic.GetDocument.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return data, nil
}

func (l *DocumentLogic) ListDocuments(spaceID, category string, page, pageSize uint64) ([]types.Document, uint64, error) {
	if err := l.VerifySpace(spaceID); err != nil {
		return nil, 0, err
	}

	opts := types.GetDocumentOptions{
		SpaceID:  spaceID,
		Category: category,
	}
	list, err := l.core.Store().DocumentStore().ListDocuments(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("DocumentLogic.ListDocuments.DocumentStore.ListDocuments", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().DocumentStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("DocumentLogic.ListDocuments.DocumentStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// UpdateDocument renames or recategorizes a document. Indexed chunks carry a
// copy of both fields for citations, so they are updated in the same
// transaction.
func (l *DocumentLogic) UpdateDocument(spaceID, id string, args types.UpdateDocumentArgs) (*types.Document, error) {
	doc, err := l.GetDocument(spaceID, id)
	if err != nil {
		return nil, err
	}
	if args.Name == "" && args.Category == "" {
		return doc, nil
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().DocumentStore().Update(ctx, spaceID, id, args); err != nil {
			return err
		}
		return l.core.Store().ChunkStore().UpdateMetaByDocument(ctx, spaceID, id, args.Name, args.Category)
	})
	if err != nil {
		return nil, errors.New("DocumentLogic.UpdateDocument.Transaction", i18n.ERROR_INTERNAL, err)
	}

	if args.Name != "" {
		doc.Name = args.Name
	}
	if args.Category != "" {
		doc.Category = args.Category
	}
	doc.UpdatedAt = time.Now().Unix()
	return doc, nil
}

// DeleteDocument removes the document and every chunk it put in the index in
// one transaction. The stored source file goes last, best effort.
func (l *DocumentLogic) DeleteDocument(spaceID, id string) error {
	doc, err := l.GetDocument(spaceID, id)
	if err != nil {
		return err
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().ChunkStore().DeleteByDocument(ctx, spaceID, id); err != nil {
			return err
		}
		return l.core.Store().DocumentStore().Delete(ctx, spaceID, id)
	})
	if err != nil {
		return errors.New("DocumentLogic.DeleteDocument.Transaction", i18n.ERROR_INTERNAL, err)
	}

	if doc.StorageKey != "" {
		if err = l.core.FileStorage().Delete(l.ctx, doc.StorageKey); err != nil {
			slog.Warn("failed to delete document source", slog.String("document_id", id), slog.String("error", err.Error()))
		}
	}
	return nil
}

// RetryDocument re-runs ingestion for a failed document from its stored
// source.
func (l *DocumentLogic) RetryDocument(spaceID, id string) (*types.Document, error) {
	doc, err := l.GetDocument(spaceID, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != types.DOCUMENT_STATUS_FAILED {
		return nil, errors.New("DocumentLogic.RetryDocument.status", i18n.ERROR_DOCUMENT_NOT_RETRYABLE, nil).Code(http.StatusBadRequest)
	}
	if doc.StorageKey == "" {
		return nil, errors.New("DocumentLogic.RetryDocument.noSource", i18n.ERROR_DOCUMENT_NOT_RETRYABLE, nil).Code(http.StatusBadRequest)
	}

	raw, err := l.core.FileStorage().Download(l.ctx, doc.StorageKey)
	if err != nil {
		return nil, errors.New("DocumentLogic.RetryDocument.Download", i18n.ERROR_INTERNAL, err)
	}

	docStore := l.core.Store().DocumentStore()
	if err = docStore.SetRetryTimes(l.ctx, spaceID, id, doc.RetryTimes+1); err != nil {
		return nil, errors.New("DocumentLogic.RetryDocument.SetRetryTimes", i18n.ERROR_INTERNAL, err)
	}
	if err = docStore.UpdateStatus(l.ctx, spaceID, id, types.DOCUMENT_STATUS_PROCESSING, -1); err != nil {
		return nil, errors.New("DocumentLogic.RetryDocument.UpdateStatus", i18n.ERROR_INTERNAL, err)
	}
	doc.Status = types.DOCUMENT_STATUS_PROCESSING
	doc.RetryTimes++

	ingester := NewIngester(l.core)
	retried := *doc
	go safe.Run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*10)
		defer cancel()
		if err := ingester.Ingest(ctx, &retried, raw); err != nil {
			slog.Error("document retry ingestion failed",
				slog.String("space_id", retried.SpaceID),
				slog.String("document_id", retried.ID),
				slog.String("error", err.Error()))
		}
	})

	return doc, nil
}
