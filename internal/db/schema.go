package db

// SchemaSQL is the complete schema for fresh installs. It is the single
// source of truth: tests open their databases through this package so a
// repository referencing a missing column fails immediately with
// "no such column" instead of drifting silently.
const SchemaSQL = `
-- Update requests (the durable ledger of everything ever submitted)
CREATE TABLE IF NOT EXISTS update_requests (
	id TEXT PRIMARY KEY,
	codename TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	requester_id TEXT,
	channel_id TEXT,
	message_id TEXT,
	description TEXT NOT NULL,
	context_messages TEXT NOT NULL DEFAULT '[]',
	retry_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN (
		'queued', 'preflight_checks', 'creating_snapshot', 'executing',
		'testing', 'completed', 'failed', 'rolled_back'
	)) DEFAULT 'queued',
	failure_reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_update_requests_status ON update_requests(status);
CREATE INDEX IF NOT EXISTS idx_update_requests_codename ON update_requests(codename);

-- Implementation plans, one per request. The body column holds the full
-- JSON document; the scalar columns exist for querying.
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	requires_human INTEGER NOT NULL DEFAULT 0,
	approval_status TEXT NOT NULL CHECK(approval_status IN (
		'pending', 'approved', 'rejected', 'modified'
	)) DEFAULT 'pending',
	rejection_reason TEXT,
	body TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (request_id) REFERENCES update_requests(id)
);

CREATE INDEX IF NOT EXISTS idx_plans_request ON plans(request_id);

-- Update runs (one end-to-end execution attempt of a request)
CREATE TABLE IF NOT EXISTS update_runs (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	plan_id TEXT,
	phase TEXT NOT NULL,
	snapshot_id TEXT,
	success INTEGER NOT NULL DEFAULT 0,
	rolled_back INTEGER NOT NULL DEFAULT 0,
	failure_reason TEXT,
	log_dir TEXT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	FOREIGN KEY (request_id) REFERENCES update_requests(id),
	FOREIGN KEY (plan_id) REFERENCES plans(id)
);

CREATE INDEX IF NOT EXISTS idx_update_runs_request ON update_runs(request_id);
`
