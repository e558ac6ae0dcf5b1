package sqlstore

import (
	"strings"
	"testing"
)

func TestRenderMigrationEmbeddingDimension(t *testing.T) {
	content, err := createTableFiles.ReadFile("migrations/00002_create_chunk.sql")
	if err != nil {
		t.Fatal(err)
	}

	rendered := renderMigration(string(content), 1536)
	if !strings.Contains(rendered, "vector(1536)") {
		t.Fatalf("vector column not sized to the configured dimension:\n%s", rendered)
	}
	if strings.Contains(rendered, embeddingDimensionMarker) {
		t.Fatal("dimension marker left unrendered")
	}
}

func TestRenderMigrationLeavesOtherFilesAlone(t *testing.T) {
	in := "CREATE TABLE x (id VARCHAR(32) PRIMARY KEY);"
	if out := renderMigration(in, 1024); out != in {
		t.Fatalf("unexpected rewrite: %s", out)
	}
}
