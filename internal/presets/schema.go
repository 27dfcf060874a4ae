package presets

// SchemaVersion is the current database schema version
const SchemaVersion = 2

const schema = `
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS presets (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT DEFAULT '',
    config TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_presets_name ON presets(name);
`

// Migration describes one schema step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations run in order on databases older than their version.
var Migrations = []Migration{
	{
		Version:     2,
		Description: "Add tags to presets",
		SQL:         `ALTER TABLE presets ADD COLUMN tags TEXT DEFAULT '';`,
	},
}
