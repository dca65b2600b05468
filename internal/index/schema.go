package index

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS vault (
	id     INTEGER PRIMARY KEY CHECK (id = 1),
	record TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS data_records (
	id         TEXT PRIMARY KEY,
	data_type  TEXT NOT NULL DEFAULT '',
	visibility TEXT NOT NULL DEFAULT 'private',
	record     TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_data_type ON data_records(data_type);
CREATE INDEX IF NOT EXISTS idx_data_visibility ON data_records(visibility);

CREATE TABLE IF NOT EXISTS outbox (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	job        TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);

CREATE TABLE IF NOT EXISTS policy_audit (
	id         TEXT PRIMARY KEY,
	data_id    TEXT NOT NULL,
	policy     TEXT NOT NULL,
	action     TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS listings (
	id         TEXT PRIMARY KEY,
	data_id    TEXT NOT NULL,
	listing    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS purchases (
	id         TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	purchase   TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`
