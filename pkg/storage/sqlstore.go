package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/sqltx"
	"github.com/meridian/orchestrator/pkg/types"
)

// SQLStore is the database/sql-backed Store, driven by the
// github.com/mattn/go-sqlite3 driver for the default single-node
// deployment.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a sqlite database at path
// and applies the schema. The dsn appends _txlock=immediate so every
// transaction begun by WithinTransaction takes a write lock up front,
// the sqlite equivalent of SELECT ... FOR UPDATE.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open sqlite database", err)
	}
	db.SetMaxOpenConns(1) // sqlite allows a single writer; serialize all access through one conn
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Internal, "apply schema", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// DB exposes the underlying connection so eventstream.NewSQLStream can
// share it and participate in the same WithinTransaction calls.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) exec(ctx context.Context) sqltx.Executor {
	return sqltx.Pick(ctx, s.db)
}

// WithinTransaction begins a BEGIN IMMEDIATE transaction (via the
// _txlock=immediate DSN option) and runs fn with it attached to ctx.
// A call already running inside a transaction reuses it rather than
// nesting, so services can compose Store writes and an
// eventstream.Stream.Send inside one outer transaction.
func (s *SQLStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := sqltx.From(ctx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "begin transaction", err)
	}
	if err := fn(sqltx.With(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Unavailable, "commit transaction", err)
	}
	return nil
}

func notFound(kind, id string) error {
	return errs.New(errs.NotFound, fmt.Sprintf("%s %q not found", kind, id))
}

// --- Team ---

func (s *SQLStore) UpsertTeam(ctx context.Context, t *types.Team) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO teams (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		t.ID, t.Name)
	if err != nil {
		return errs.Wrap(errs.Internal, "upsert team", err)
	}
	return nil
}

func (s *SQLStore) GetTeam(ctx context.Context, id string) (*types.Team, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT id, name FROM teams WHERE id = ?`, id)
	var t types.Team
	if err := row.Scan(&t.ID, &t.Name); err == sql.ErrNoRows {
		return nil, notFound("team", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get team", err)
	}
	return &t, nil
}

func (s *SQLStore) ListTeams(ctx context.Context) ([]*types.Team, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT id, name FROM teams ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list teams", err)
	}
	defer rows.Close()
	var out []*types.Team
	for rows.Next() {
		var t types.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan team", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteTeam(ctx context.Context, id string) error {
	_, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete team", err)
	}
	return nil
}

// --- Template ---

func (s *SQLStore) UpsertTemplate(ctx context.Context, t *types.Template) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO templates (id, repository, git_ref, path) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET repository = excluded.repository,
			git_ref = excluded.git_ref, path = excluded.path`,
		t.ID, t.Repository, t.GitRef, t.Path)
	if err != nil {
		return errs.Wrap(errs.Internal, "upsert template", err)
	}
	return nil
}

func (s *SQLStore) GetTemplate(ctx context.Context, id string) (*types.Template, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, repository, git_ref, path FROM templates WHERE id = ?`, id)
	var t types.Template
	if err := row.Scan(&t.ID, &t.Repository, &t.GitRef, &t.Path); err == sql.ErrNoRows {
		return nil, notFound("template", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get template", err)
	}
	return &t, nil
}

func (s *SQLStore) ListTemplates(ctx context.Context) ([]*types.Template, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT id, repository, git_ref, path FROM templates ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list templates", err)
	}
	defer rows.Close()
	var out []*types.Template
	for rows.Next() {
		var t types.Template
		if err := rows.Scan(&t.ID, &t.Repository, &t.GitRef, &t.Path); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan template", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteTemplate(ctx context.Context, id string) error {
	_, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete template", err)
	}
	return nil
}

// --- Workload ---

func (s *SQLStore) UpsertWorkload(ctx context.Context, w *types.Workload) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO workloads (id, name, team_id, template_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			team_id = excluded.team_id, template_id = excluded.template_id`,
		w.ID, w.Name, w.TeamID, w.TemplateID)
	if err != nil {
		return errs.Wrap(errs.Internal, "upsert workload", err)
	}
	return nil
}

func (s *SQLStore) GetWorkload(ctx context.Context, id string) (*types.Workload, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, name, team_id, template_id FROM workloads WHERE id = ?`, id)
	var w types.Workload
	if err := row.Scan(&w.ID, &w.Name, &w.TeamID, &w.TemplateID); err == sql.ErrNoRows {
		return nil, notFound("workload", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get workload", err)
	}
	return &w, nil
}

func (s *SQLStore) ListWorkloads(ctx context.Context) ([]*types.Workload, error) {
	return s.queryWorkloads(ctx, `SELECT id, name, team_id, template_id FROM workloads ORDER BY id`)
}

func (s *SQLStore) ListWorkloadsByTeam(ctx context.Context, teamID string) ([]*types.Workload, error) {
	return s.queryWorkloads(ctx,
		`SELECT id, name, team_id, template_id FROM workloads WHERE team_id = ? ORDER BY id`, teamID)
}

func (s *SQLStore) ListWorkloadsByTemplate(ctx context.Context, templateID string) ([]*types.Workload, error) {
	return s.queryWorkloads(ctx,
		`SELECT id, name, team_id, template_id FROM workloads WHERE template_id = ? ORDER BY id`, templateID)
}

func (s *SQLStore) queryWorkloads(ctx context.Context, query string, args ...interface{}) ([]*types.Workload, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list workloads", err)
	}
	defer rows.Close()
	var out []*types.Workload
	for rows.Next() {
		var w types.Workload
		if err := rows.Scan(&w.ID, &w.Name, &w.TeamID, &w.TemplateID); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan workload", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteWorkload(ctx context.Context, id string) error {
	_, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM workloads WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete workload", err)
	}
	return nil
}

// --- Target ---

func (s *SQLStore) UpsertTarget(ctx context.Context, t *types.Target) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx).ExecContext(ctx,
			`INSERT INTO targets (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, t.ID); err != nil {
			return errs.Wrap(errs.Internal, "upsert target", err)
		}
		return s.replaceLabels(ctx, "target_labels", "target_id", t.ID, t.Labels)
	})
}

func (s *SQLStore) GetTarget(ctx context.Context, id string) (*types.Target, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT id FROM targets WHERE id = ?`, id)
	var t types.Target
	if err := row.Scan(&t.ID); err == sql.ErrNoRows {
		return nil, notFound("target", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get target", err)
	}
	labels, err := s.labelsFor(ctx, "target_labels", "target_id", id)
	if err != nil {
		return nil, err
	}
	t.Labels = labels
	return &t, nil
}

func (s *SQLStore) ListTargets(ctx context.Context) ([]*types.Target, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT id FROM targets ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list targets", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.Internal, "scan target", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*types.Target, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTarget(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLStore) DeleteTarget(ctx context.Context, id string) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM target_labels WHERE target_id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete target labels", err)
		}
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM targets WHERE id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete target", err)
		}
		return nil
	})
}

// --- Host ---

func (s *SQLStore) UpsertHost(ctx context.Context, h *types.Host) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx).ExecContext(ctx,
			`INSERT INTO hosts (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, h.ID); err != nil {
			return errs.Wrap(errs.Internal, "upsert host", err)
		}
		return s.replaceLabels(ctx, "host_labels", "host_id", h.ID, h.Labels)
	})
}

func (s *SQLStore) GetHost(ctx context.Context, id string) (*types.Host, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT id FROM hosts WHERE id = ?`, id)
	var h types.Host
	if err := row.Scan(&h.ID); err == sql.ErrNoRows {
		return nil, notFound("host", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get host", err)
	}
	labels, err := s.labelsFor(ctx, "host_labels", "host_id", id)
	if err != nil {
		return nil, err
	}
	h.Labels = labels
	return &h, nil
}

func (s *SQLStore) ListHosts(ctx context.Context) ([]*types.Host, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT id FROM hosts ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list hosts", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.Internal, "scan host", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*types.Host, 0, len(ids))
	for _, id := range ids {
		h, err := s.GetHost(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// ListHostsMatchingLabels returns every Host whose label set is a
// superset of subset, realizing the inverted-label-index lookup as a
// count over the host_labels join table.
func (s *SQLStore) ListHostsMatchingLabels(ctx context.Context, subset []string) ([]*types.Host, error) {
	if len(subset) == 0 {
		return s.ListHosts(ctx)
	}
	placeholders := make([]string, len(subset))
	args := make([]interface{}, 0, len(subset)+1)
	for i, label := range subset {
		placeholders[i] = "?"
		args = append(args, label)
	}
	args = append(args, len(subset))
	query := fmt.Sprintf(`
		SELECT h.id FROM hosts h
		WHERE (
			SELECT COUNT(*) FROM host_labels hl
			WHERE hl.host_id = h.id AND hl.label IN (%s)
		) = ?
		ORDER BY h.id`, strings.Join(placeholders, ","))
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list hosts matching labels", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.Internal, "scan host", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*types.Host, 0, len(ids))
	for _, id := range ids {
		h, err := s.GetHost(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *SQLStore) DeleteHost(ctx context.Context, id string) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM assignments WHERE host_id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete assignments for host", err)
		}
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM host_labels WHERE host_id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete host labels", err)
		}
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM hosts WHERE id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete host", err)
		}
		return nil
	})
}

// --- Deployment ---

func (s *SQLStore) UpsertDeployment(ctx context.Context, d *types.Deployment) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO deployments (id, name, workload_id, target_id, template_id, host_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, workload_id = excluded.workload_id,
			target_id = excluded.target_id, template_id = excluded.template_id,
			host_count = excluded.host_count`,
		d.ID, d.Name, d.WorkloadID, d.TargetID, nullableString(d.TemplateID), d.HostCount)
	if err != nil {
		return errs.Wrap(errs.Internal, "upsert deployment", err)
	}
	return nil
}

func (s *SQLStore) GetDeployment(ctx context.Context, id string) (*types.Deployment, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, name, workload_id, target_id, template_id, host_count FROM deployments WHERE id = ?`, id)
	return scanDeployment(row)
}

func (s *SQLStore) ListDeployments(ctx context.Context) ([]*types.Deployment, error) {
	return s.queryDeployments(ctx, `SELECT id, name, workload_id, target_id, template_id, host_count FROM deployments ORDER BY id`)
}

func (s *SQLStore) ListDeploymentsByTarget(ctx context.Context, targetID string) ([]*types.Deployment, error) {
	return s.queryDeployments(ctx,
		`SELECT id, name, workload_id, target_id, template_id, host_count FROM deployments WHERE target_id = ? ORDER BY id`, targetID)
}

func (s *SQLStore) ListDeploymentsByWorkload(ctx context.Context, workloadID string) ([]*types.Deployment, error) {
	return s.queryDeployments(ctx,
		`SELECT id, name, workload_id, target_id, template_id, host_count FROM deployments WHERE workload_id = ? ORDER BY id`, workloadID)
}

func (s *SQLStore) ListDeploymentsByTemplate(ctx context.Context, templateID string) ([]*types.Deployment, error) {
	return s.queryDeployments(ctx,
		`SELECT id, name, workload_id, target_id, template_id, host_count FROM deployments WHERE template_id = ? ORDER BY id`, templateID)
}

func (s *SQLStore) queryDeployments(ctx context.Context, query string, args ...interface{}) ([]*types.Deployment, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list deployments", err)
	}
	defer rows.Close()
	var out []*types.Deployment
	for rows.Next() {
		d, err := scanDeploymentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanDeployment(row scannable) (*types.Deployment, error) {
	var d types.Deployment
	var templateID sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &d.WorkloadID, &d.TargetID, &templateID, &d.HostCount); err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFound, "deployment not found")
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "scan deployment", err)
	}
	d.TemplateID = templateID.String
	return &d, nil
}

func scanDeploymentRows(rows *sql.Rows) (*types.Deployment, error) {
	var d types.Deployment
	var templateID sql.NullString
	if err := rows.Scan(&d.ID, &d.Name, &d.WorkloadID, &d.TargetID, &templateID, &d.HostCount); err != nil {
		return nil, errs.Wrap(errs.Internal, "scan deployment", err)
	}
	d.TemplateID = templateID.String
	return &d, nil
}

func (s *SQLStore) DeleteDeployment(ctx context.Context, id string) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM assignments WHERE deployment_id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete assignments for deployment", err)
		}
		if _, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM deployments WHERE id = ?`, id); err != nil {
			return errs.Wrap(errs.Internal, "delete deployment", err)
		}
		return nil
	})
}

// --- Assignment ---

func (s *SQLStore) UpsertAssignment(ctx context.Context, a *types.Assignment) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO assignments (id, deployment_id, host_id) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET deployment_id = excluded.deployment_id, host_id = excluded.host_id`,
		a.ID, a.DeploymentID, a.HostID)
	if err != nil {
		return errs.Wrap(errs.Conflict, "upsert assignment", err)
	}
	return nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (*types.Assignment, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, deployment_id, host_id FROM assignments WHERE id = ?`, id)
	var a types.Assignment
	if err := row.Scan(&a.ID, &a.DeploymentID, &a.HostID); err == sql.ErrNoRows {
		return nil, notFound("assignment", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get assignment", err)
	}
	return &a, nil
}

func (s *SQLStore) ListAssignments(ctx context.Context) ([]*types.Assignment, error) {
	return s.queryAssignments(ctx, `SELECT id, deployment_id, host_id FROM assignments ORDER BY id`)
}

func (s *SQLStore) ListAssignmentsByDeployment(ctx context.Context, deploymentID string) ([]*types.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT id, deployment_id, host_id FROM assignments WHERE deployment_id = ? ORDER BY host_id`, deploymentID)
}

func (s *SQLStore) ListAssignmentsByHost(ctx context.Context, hostID string) ([]*types.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT id, deployment_id, host_id FROM assignments WHERE host_id = ? ORDER BY id`, hostID)
}

func (s *SQLStore) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*types.Assignment, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list assignments", err)
	}
	defer rows.Close()
	var out []*types.Assignment
	for rows.Next() {
		var a types.Assignment
		if err := rows.Scan(&a.ID, &a.DeploymentID, &a.HostID); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan assignment", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteAssignment(ctx context.Context, id string) error {
	_, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete assignment", err)
	}
	return nil
}

// --- Config ---

func (s *SQLStore) UpsertConfig(ctx context.Context, c *types.Config) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO configs (id, key, value, owning_model, value_type) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET key = excluded.key, value = excluded.value,
			owning_model = excluded.owning_model, value_type = excluded.value_type`,
		c.ID, c.Key, c.Value, c.OwningModel, string(c.ValueType))
	if err != nil {
		return errs.Wrap(errs.Internal, "upsert config", err)
	}
	return nil
}

func (s *SQLStore) GetConfig(ctx context.Context, id string) (*types.Config, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, key, value, owning_model, value_type FROM configs WHERE id = ?`, id)
	var c types.Config
	var valueType string
	if err := row.Scan(&c.ID, &c.Key, &c.Value, &c.OwningModel, &valueType); err == sql.ErrNoRows {
		return nil, notFound("config", id)
	} else if err != nil {
		return nil, errs.Wrap(errs.Internal, "get config", err)
	}
	c.ValueType = types.ValueType(valueType)
	return &c, nil
}

func (s *SQLStore) ListConfigs(ctx context.Context) ([]*types.Config, error) {
	return s.queryConfigs(ctx, `SELECT id, key, value, owning_model, value_type FROM configs ORDER BY id`)
}

func (s *SQLStore) ListConfigsByOwningModel(ctx context.Context, owningModel string) ([]*types.Config, error) {
	return s.queryConfigs(ctx,
		`SELECT id, key, value, owning_model, value_type FROM configs WHERE owning_model = ? ORDER BY id`, owningModel)
}

func (s *SQLStore) queryConfigs(ctx context.Context, query string, args ...interface{}) ([]*types.Config, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list configs", err)
	}
	defer rows.Close()
	var out []*types.Config
	for rows.Next() {
		var c types.Config
		var valueType string
		if err := rows.Scan(&c.ID, &c.Key, &c.Value, &c.OwningModel, &valueType); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan config", err)
		}
		c.ValueType = types.ValueType(valueType)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteConfig(ctx context.Context, id string) error {
	_, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM configs WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "delete config", err)
	}
	return nil
}

// --- label helpers ---

func (s *SQLStore) replaceLabels(ctx context.Context, table, column, id string, labels []string) error {
	if _, err := s.exec(ctx).ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, column), id); err != nil {
		return errs.Wrap(errs.Internal, "clear labels", err)
	}
	for _, label := range labels {
		if _, err := s.exec(ctx).ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, label) VALUES (?, ?)`, table, column), id, label); err != nil {
			return errs.Wrap(errs.Internal, "insert label", err)
		}
	}
	return nil
}

func (s *SQLStore) labelsFor(ctx context.Context, table, column, id string) ([]string, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		fmt.Sprintf(`SELECT label FROM %s WHERE %s = ?`, table, column), id)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list labels", err)
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan label", err)
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
