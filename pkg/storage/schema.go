package storage

// schema is the embedded DDL for the sqlite-backed Store, written as a
// plain string constant rather than shipped as a .sql asset or driven
// through an ORM/migration tool, in the manner of the teacher's
// bucket-literal schema.
const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	repository TEXT NOT NULL,
	git_ref    TEXT NOT NULL,
	path       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workloads (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	team_id     TEXT NOT NULL REFERENCES teams(id),
	template_id TEXT NOT NULL REFERENCES templates(id)
);
CREATE INDEX IF NOT EXISTS idx_workloads_team_id ON workloads(team_id);
CREATE INDEX IF NOT EXISTS idx_workloads_template_id ON workloads(template_id);

CREATE TABLE IF NOT EXISTS targets (
	id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS target_labels (
	target_id TEXT NOT NULL REFERENCES targets(id),
	label     TEXT NOT NULL,
	PRIMARY KEY (target_id, label)
);

CREATE TABLE IF NOT EXISTS hosts (
	id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS host_labels (
	host_id TEXT NOT NULL REFERENCES hosts(id),
	label   TEXT NOT NULL,
	PRIMARY KEY (host_id, label)
);
CREATE INDEX IF NOT EXISTS idx_host_labels_label ON host_labels(label);

CREATE TABLE IF NOT EXISTS deployments (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	workload_id TEXT NOT NULL REFERENCES workloads(id),
	target_id   TEXT NOT NULL REFERENCES targets(id),
	template_id TEXT REFERENCES templates(id),
	host_count  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deployments_target_id ON deployments(target_id);
CREATE INDEX IF NOT EXISTS idx_deployments_workload_id ON deployments(workload_id);
CREATE INDEX IF NOT EXISTS idx_deployments_template_id ON deployments(template_id);

CREATE TABLE IF NOT EXISTS assignments (
	id            TEXT PRIMARY KEY,
	deployment_id TEXT NOT NULL REFERENCES deployments(id),
	host_id       TEXT NOT NULL REFERENCES hosts(id),
	UNIQUE (deployment_id, host_id)
);
CREATE INDEX IF NOT EXISTS idx_assignments_deployment_id ON assignments(deployment_id);
CREATE INDEX IF NOT EXISTS idx_assignments_host_id ON assignments(host_id);

CREATE TABLE IF NOT EXISTS configs (
	id           TEXT PRIMARY KEY,
	key          TEXT NOT NULL,
	value        TEXT NOT NULL,
	owning_model TEXT NOT NULL,
	value_type   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_configs_owning_model ON configs(owning_model);

CREATE TABLE IF NOT EXISTS event_queue (
	id                         TEXT PRIMARY KEY,
	timestamp                  TEXT NOT NULL,
	operation_id               TEXT NOT NULL,
	event_type                 TEXT NOT NULL,
	model_type                 TEXT NOT NULL,
	serialized_previous_model  TEXT,
	serialized_current_model   TEXT
);
CREATE INDEX IF NOT EXISTS idx_event_queue_timestamp_id ON event_queue(timestamp, id);

CREATE TABLE IF NOT EXISTS event_acks (
	consumer_id TEXT NOT NULL,
	event_id    TEXT NOT NULL REFERENCES event_queue(id),
	PRIMARY KEY (consumer_id, event_id)
);
`
