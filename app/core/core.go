package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/docpile-ai/docpile/app/core/srv"
	"github.com/docpile-ai/docpile/app/store/sqlstore"
	"github.com/docpile-ai/docpile/pkg/chunker"
	"github.com/docpile-ai/docpile/pkg/objectstorage/s3"
	"github.com/docpile-ai/docpile/pkg/rag"
	"github.com/docpile-ai/docpile/pkg/types"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores      func() *sqlstore.Provider
	httpEngine  *gin.Engine
	metrics     *Metrics
	fileStorage types.FileStorage
	redis       redis.UniversalClient
	embedSem    Semaphore
}

func MustSetupCore(cfg CoreConfig, opts ...srv.ApplyFunc) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	core := &Core{
		cfg:        cfg,
		httpEngine: gin.New(),
		metrics:    NewMetrics("docpile", "core"),
	}

	core.stores = sqlstore.MustSetup(cfg.Postgres)

	if cfg.Redis.Addr != "" {
		core.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		core.embedSem = NewDistributedSemaphore(core.redis, "docpile:semaphore:embedding", cfg.RAG.EmbedConcurrency, time.Minute*10)
	} else {
		core.embedSem = NewLocalSemaphore(cfg.RAG.EmbedConcurrency)
	}

	if cfg.ObjectStorage.Driver == "s3" && cfg.ObjectStorage.S3 != nil {
		s3cfg := cfg.ObjectStorage.S3
		core.fileStorage = s3.NewS3Client(s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket, cfg.ObjectStorage.StaticDomain, s3cfg.AccessKey, s3cfg.SecretKey)
	} else {
		core.fileStorage = noopStorage{}
	}

	if len(opts) == 0 {
		opts = append(opts, srv.ApplyAI(cfg.AI))
	}
	core.srv = srv.SetupSrvs(opts...)

	return core
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) FileStorage() types.FileStorage {
	return s.fileStorage
}

func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

func (s *Core) EmbeddingSemaphore() Semaphore {
	return s.embedSem
}

// ChunkPolicy builds the configured splitting policy.
func (s *Core) ChunkPolicy() chunker.Policy {
	switch s.cfg.RAG.ChunkPolicy {
	case CHUNK_POLICY_WINDOW:
		p := chunker.NewWindowPolicy()
		if s.cfg.RAG.WindowSize > 0 {
			p.Size = s.cfg.RAG.WindowSize
		}
		if s.cfg.RAG.WindowOverlap > 0 {
			p.Overlap = s.cfg.RAG.WindowOverlap
		}
		return p
	default:
		return chunker.NewParagraphPolicy()
	}
}

func (s *Core) Assembler() *rag.Assembler {
	return rag.NewAssembler(s.cfg.RAG.TokenBudget, s.cfg.AI.ChatModel)
}

// noopStorage keeps ingestion working when no object storage is configured.
// Documents simply have no public URL.
type noopStorage struct{}

func (noopStorage) Upload(ctx context.Context, key string, body io.Reader) (string, error) {
	return "", nil
}

func (noopStorage) Download(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("no object storage configured")
}

func (noopStorage) Delete(ctx context.Context, key string) error {
	return nil
}
