package db

import "fmt"

// schemaTemplate holds the table definitions; %d is the embedding dimension.
const schemaTemplate = `
    -- ==========================================================================
    -- MESSAGE TABLE (conversation log)
    -- ==========================================================================
    -- Append-only. Chronology comes from seq, never from record order.
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation_id ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["user", "assistant"];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS seq ON message TYPE int;
    DEFINE FIELD IF NOT EXISTS embedding ON message TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_conversation_seq ON message FIELDS conversation_id, seq;
    DEFINE INDEX IF NOT EXISTS message_embedding ON message FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- PAYMENT TABLE
    -- ==========================================================================
    -- Record ID is the upper-cased payment reference.
    DEFINE TABLE IF NOT EXISTS payment SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS payment_id ON payment TYPE string;
    DEFINE FIELD IF NOT EXISTS customer_name ON payment TYPE string;
    DEFINE FIELD IF NOT EXISTS customer_email ON payment TYPE string;
    DEFINE FIELD IF NOT EXISTS amount ON payment TYPE number;
    DEFINE FIELD IF NOT EXISTS currency ON payment TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON payment TYPE string;
    DEFINE FIELD IF NOT EXISTS items ON payment TYPE array<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS date ON payment TYPE string;
`

// SchemaSQL returns the schema with the HNSW index sized to dimension.
func SchemaSQL(dimension int) string {
	return fmt.Sprintf(schemaTemplate, dimension)
}
