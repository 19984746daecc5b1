package db

import (
	"database/sql"
)

// MigrateUp creates the schema. Statements are idempotent so the migration
// can run at every startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS workspaces (
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS clients (
    id           UUID PRIMARY KEY,
    workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
    first_name   TEXT NOT NULL,
    last_name    TEXT NOT NULL DEFAULT '',
    email        TEXT NOT NULL DEFAULT '',
    phone        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS appointments (
    id              UUID PRIMARY KEY,
    workspace_id    UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
    client_id       UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
    scheduled_start TIMESTAMPTZ NOT NULL,
    scheduled_end   TIMESTAMPTZ NOT NULL,
    status          VARCHAR(20) NOT NULL DEFAULT 'scheduled',
    location_type   VARCHAR(20) NOT NULL DEFAULT 'clinic',
    notes           TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
    id             UUID PRIMARY KEY,
    workspace_id   UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
    client_id      UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
    appointment_id UUID REFERENCES appointments(id) ON DELETE SET NULL,
    subjective     TEXT NOT NULL DEFAULT '',
    objective      TEXT NOT NULL DEFAULT '',
    assessment     TEXT NOT NULL DEFAULT '',
    plan           TEXT NOT NULL DEFAULT '',
    session_date   TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	indexes := []string{
		// Every query filters by workspace first.
		`CREATE INDEX IF NOT EXISTS idx_clients_workspace ON clients(workspace_id, last_name, first_name)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_workspace_start ON appointments(workspace_id, scheduled_start)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_client ON appointments(workspace_id, client_id, scheduled_start DESC)`,
		// Reminder scans cross workspaces, so this index leads with status.
		`CREATE INDEX IF NOT EXISTS idx_appointments_upcoming ON appointments(status, scheduled_start)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_client ON sessions(workspace_id, client_id, session_date DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// pg_trgm speeds up the ILIKE client search. Errors are ignored: the
	// extension may already exist, or the role may lack superuser rights.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	searchIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_clients_first_name_gin ON clients USING gin(first_name gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_last_name_gin ON clients USING gin(last_name gin_trgm_ops)`,
	}
	for _, idx := range searchIndexes {
		// Fails without pg_trgm, which is optional.
		_, _ = db.Exec(idx)
	}

	// pgvector backs semantic search over session notes. Same error policy
	// as pg_trgm above.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	// vector(1536) matches OpenAI text-embedding-3-small. The dimension
	// column stores metadata for validation.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS session_embeddings (
    id         UUID PRIMARY KEY,
    session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    provider   VARCHAR(50) NOT NULL,
    model      VARCHAR(100) NOT NULL,
    dimension  INT NOT NULL,
    embedding  vector(1536) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(session_id, provider, model)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_session_embeddings_session_id ON session_embeddings(session_id)`,
	); err != nil {
		return err
	}

	// IVFFlat index for cosine similarity search. lists=100 suits <1M rows.
	// Ignored when pgvector is unavailable.
	_, _ = db.Exec(`
CREATE INDEX IF NOT EXISTS idx_session_embeddings_vector
    ON session_embeddings USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100)`)

	return nil
}

// MigrateDownEmbeddingsOnly rolls back only the embedding feature, keeping
// the core clinical tables intact.
func MigrateDownEmbeddingsOnly(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_session_embeddings_vector`,
		`DROP INDEX IF EXISTS idx_session_embeddings_session_id`,
		`DROP TABLE IF EXISTS session_embeddings CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
