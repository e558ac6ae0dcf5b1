package sqlstore

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/docpile-ai/docpile/app/store"
	"github.com/docpile-ai/docpile/pkg/register"
	"github.com/docpile-ai/docpile/pkg/sqlstore"
	"github.com/docpile-ai/docpile/pkg/types"
)

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

//go:embed migrations/*.sql
var createTableFiles embed.FS

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.DocumentStore
	store.ChunkStore
	store.AccessTokenStore
}

type RegisterKey struct{}

// MustSetup connects the provider and lets every table store register itself.
func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)

	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}

	return func() *Provider {
		return provider
	}
}

func (p *Provider) DocumentStore() store.DocumentStore {
	return p.stores.DocumentStore
}

func (p *Provider) ChunkStore() store.ChunkStore {
	return p.stores.ChunkStore
}

func (p *Provider) AccessTokenStore() store.AccessTokenStore {
	return p.stores.AccessTokenStore
}

// Install applies the embedded schema files that have not run yet. The vector
// column is sized to the configured embedding dimension.
func (p *Provider) Install(embeddingDimension int) error {
	if err := p.enableExtensions(); err != nil {
		return err
	}

	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := createTableFiles.ReadDir("migrations")
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		executed, err := p.isFileExecuted(file.Name())
		if err != nil {
			return err
		}
		if executed {
			continue
		}

		content, err := createTableFiles.ReadFile("migrations/" + file.Name())
		if err != nil {
			return err
		}

		if _, err = p.SqlProvider.GetMaster().Exec(renderMigration(string(content), embeddingDimension)); err != nil {
			return fmt.Errorf("failed to apply %s, %w", file.Name(), err)
		}

		if err = p.markFileExecuted(file.Name()); err != nil {
			return err
		}
	}
	return nil
}

const embeddingDimensionMarker = "__EMBEDDING_DIMENSION__"

func renderMigration(content string, embeddingDimension int) string {
	return strings.ReplaceAll(content, embeddingDimensionMarker, strconv.Itoa(embeddingDimension))
}

// VerifyEmbeddingDimension compares the configured embedding dimension against
// the installed vector column. A mismatch would otherwise surface only on the
// first chunk insert, long after startup.
func (p *Provider) VerifyEmbeddingDimension(embeddingDimension int) error {
	var schemaDimension int
	err := p.SqlProvider.GetReplica().Get(&schemaDimension,
		"SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'",
		types.TABLE_CHUNK)
	if err != nil {
		return fmt.Errorf("failed to read embedding column dimension, %w", err)
	}
	if schemaDimension != embeddingDimension {
		return fmt.Errorf("embedding dimension mismatch: config says %d, %s.embedding is vector(%d)",
			embeddingDimension, types.TABLE_CHUNK, schemaDimension)
	}
	return nil
}

func (p *Provider) enableExtensions() error {
	// pgvector carries the embedding column and the <=> operator.
	if _, err := p.SqlProvider.GetMaster().Exec("CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("failed to enable pgvector extension, %w", err)
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetReplica().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(filename string) error {
	_, err := p.SqlProvider.GetMaster().Exec(
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}
