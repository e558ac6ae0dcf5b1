package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/docpile-ai/docpile/app/core"
	v1 "github.com/docpile-ai/docpile/app/logic/v1"
	"github.com/docpile-ai/docpile/pkg/register"
	"github.com/docpile-ai/docpile/pkg/safe"
	"github.com/docpile-ai/docpile/pkg/types"
)

const retryPageSize = 20

func init() {
	register.RegisterFunc(ProcessKey{}, func(p *Process) {
		p.Cron().AddFunc("@every 1m", func() {
			safe.RunWithLog(func() {
				RetryFailedDocuments(p.Core())
			}, "process.RetryFailedDocuments")
		})
		p.Cron().AddFunc("@every 1m", func() {
			safe.RunWithLog(func() {
				RefreshDocumentMetrics(p.Core())
			}, "process.RefreshDocumentMetrics")
		})
	})
}

// RetryFailedDocuments sweeps failed documents that still have retry budget
// and a stored source, and pushes them through ingestion again.
func RetryFailedDocuments(core *core.Core) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*10)
	defer cancel()

	retryLimit := core.Cfg().RAG.RetryLimit
	list, err := core.Store().DocumentStore().ListFailedDocuments(ctx, retryLimit, 1, retryPageSize)
	if err != nil {
		slog.Error("Failed to list failed documents", slog.String("error", err.Error()))
		return
	}

	if len(list) > 0 {
		slog.Info("document retry sweep", slog.Int("length", len(list)))
	}

	ingester := v1.NewIngester(core)
	for _, doc := range list {
		retryDocument(ctx, core, ingester, doc)
	}
}

// RefreshDocumentMetrics exposes the document state distribution as a gauge.
func RefreshDocumentMetrics(core *core.Core) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	states := []types.DocumentStatus{
		types.DOCUMENT_STATUS_PROCESSING,
		types.DOCUMENT_STATUS_COMPLETED,
		types.DOCUMENT_STATUS_FAILED,
	}
	for _, state := range states {
		total, err := core.Store().DocumentStore().Total(ctx, types.GetDocumentOptions{Status: state})
		if err != nil {
			slog.Error("Failed to count documents by state", slog.String("state", state.String()), slog.String("error", err.Error()))
			return
		}
		core.Metrics().SetDocumentsByState(state.String(), float64(total))
	}
}

func retryDocument(ctx context.Context, core *core.Core, ingester *v1.Ingester, doc types.Document) {
	docStore := core.Store().DocumentStore()

	// Burn a retry first so a crash mid-ingestion cannot loop forever.
	if err := docStore.SetRetryTimes(ctx, doc.SpaceID, doc.ID, doc.RetryTimes+1); err != nil {
		slog.Error("Failed to bump document retry times", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
		return
	}

	if doc.StorageKey == "" {
		slog.Warn("failed document has no stored source, skipping retries",
			slog.String("space_id", doc.SpaceID),
			slog.String("document_id", doc.ID))
		docStore.SetRetryTimes(ctx, doc.SpaceID, doc.ID, core.Cfg().RAG.RetryLimit)
		return
	}

	raw, err := core.FileStorage().Download(ctx, doc.StorageKey)
	if err != nil {
		slog.Error("Failed to download document source for retry",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()))
		return
	}

	if err := docStore.UpdateStatus(ctx, doc.SpaceID, doc.ID, types.DOCUMENT_STATUS_PROCESSING, -1); err != nil {
		slog.Error("Failed to flip document back to processing", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
		return
	}

	if err := ingester.Ingest(ctx, &doc, raw); err != nil {
		slog.Error("document retry ingestion failed",
			slog.String("space_id", doc.SpaceID),
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()))
	}
}
