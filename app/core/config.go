package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/docpile-ai/docpile/app/core/srv"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.RAG.applyDefaults()
	conf.AI.ApplyDefaults()

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.RAG.applyDefaults()
	c.AI.ApplyDefaults()
	return c
}

type CoreConfig struct {
	Addr          string              `toml:"addr"`
	Log           Log                 `toml:"log"`
	Postgres      PGConfig            `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`

	AI  srv.AIConfig `toml:"ai"`
	RAG RAGConfig    `toml:"rag"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("DOCPILE_API_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.AI.FromENV()
	c.RAG.FromENV()
}

// RAGConfig tunes the retrieval pipeline. Zero values fall back to the
// documented defaults.
type RAGConfig struct {
	MatchThreshold float32 `toml:"match_threshold"` // minimum cosine similarity, default 0.5
	MatchLimit     uint64  `toml:"match_limit"`     // max chunks per query, default 5
	TokenBudget    int     `toml:"token_budget"`    // assembled context budget, default 6000

	ChunkPolicy   string `toml:"chunk_policy"` // paragraph or window
	WindowSize    int    `toml:"window_size"`
	WindowOverlap int    `toml:"window_overlap"`

	RetryLimit             int `toml:"retry_limit"`          // max automatic re-ingestions of a failed document
	EmbedTimeoutSeconds    int `toml:"embed_timeout"`        // per-request embedding timeout on the query path
	GenerateTimeoutSeconds int `toml:"generate_timeout"`     // per-request answer generation timeout
	QueryTimeoutSeconds    int `toml:"query_timeout"`        // overall budget for one query, embed to answer
	EmbedConcurrency       int `toml:"embed_concurrency"`    // max concurrent embedding calls across the deployment
	UploadSizeLimitMB      int `toml:"upload_size_limit_mb"` // max accepted document size
}

const (
	CHUNK_POLICY_PARAGRAPH = "paragraph"
	CHUNK_POLICY_WINDOW    = "window"
)

func (c *RAGConfig) applyDefaults() {
	if c.MatchThreshold == 0 {
		c.MatchThreshold = 0.5
	}
	if c.MatchLimit == 0 {
		c.MatchLimit = 5
	}
	if c.TokenBudget == 0 {
		c.TokenBudget = 6000
	}
	if c.ChunkPolicy == "" {
		c.ChunkPolicy = CHUNK_POLICY_PARAGRAPH
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = 3
	}
	if c.EmbedTimeoutSeconds == 0 {
		c.EmbedTimeoutSeconds = 15
	}
	if c.GenerateTimeoutSeconds == 0 {
		c.GenerateTimeoutSeconds = 20
	}
	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 30
	}
	if c.EmbedConcurrency == 0 {
		c.EmbedConcurrency = 10
	}
	if c.UploadSizeLimitMB == 0 {
		c.UploadSizeLimitMB = 30
	}
}

func (c *RAGConfig) FromENV() {
	if v := os.Getenv("DOCPILE_RAG_MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			c.MatchThreshold = float32(f)
		}
	}
	if v := os.Getenv("DOCPILE_RAG_MATCH_LIMIT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.MatchLimit = n
		}
	}
	c.ChunkPolicy = os.Getenv("DOCPILE_RAG_CHUNK_POLICY")
}

type ObjectStorageDriver struct {
	StaticDomain string    `toml:"static_domain"`
	Driver       string    `toml:"driver"`
	S3           *S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("DOCPILE_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("DOCPILE_REDIS_ADDR")
	r.Password = os.Getenv("DOCPILE_REDIS_PASSWORD")
	if dbStr := os.Getenv("DOCPILE_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("DOCPILE_API_LOG_LEVEL")
	l.Path = os.Getenv("DOCPILE_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
