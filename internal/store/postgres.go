package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-pipeline/internal/db"
	"github.com/sells-group/insight-pipeline/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot pipeline operations.
var preparedStatements = map[string]string{
	"insert_insight": `INSERT INTO insights (id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
	"approve_insight": `UPDATE insights SET status = 'approved' WHERE id = $1 AND status = 'pending'`,
	"increment_approved": `UPDATE clients SET approved_insights_count = approved_insights_count + 1 WHERE id = $1 RETURNING approved_insights_count`,
	"increment_responses": `UPDATE campaigns SET response_count = response_count + 1 WHERE id = $1 RETURNING response_count`,
	"recent_approved": `SELECT id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at FROM insights WHERE client_id = $1 AND status = 'approved' ORDER BY created_at DESC LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// access (e.g., the seed command's COPY loader).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS app_users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	full_name  TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'consultant',
	team       TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clients (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                    TEXT NOT NULL,
	industry                TEXT,
	description             TEXT,
	approved_insights_count INTEGER NOT NULL DEFAULT 0,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stakeholders (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id  TEXT NOT NULL REFERENCES clients(id),
	name       TEXT NOT NULL,
	role       TEXT,
	email      TEXT,
	notes      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id   TEXT NOT NULL REFERENCES clients(id),
	name        TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS insights (
	id                 TEXT PRIMARY KEY,
	author_id          TEXT NOT NULL REFERENCES app_users(id),
	client_id          TEXT NOT NULL REFERENCES clients(id),
	project_id         TEXT REFERENCES projects(id),
	stakeholder_id     TEXT REFERENCES stakeholders(id),
	raw_text           TEXT NOT NULL,
	summary            TEXT,
	themes             TEXT,
	time_horizon       TEXT,
	budget_signal      TEXT,
	competitor_mention TEXT,
	status             TEXT NOT NULL DEFAULT 'pending',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS opportunities (
	id             TEXT PRIMARY KEY,
	client_id      TEXT NOT NULL REFERENCES clients(id),
	insight_id     TEXT REFERENCES insights(id),
	title          TEXT NOT NULL,
	description    TEXT,
	value_estimate TEXT,
	stage          TEXT NOT NULL DEFAULT 'identified',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT PRIMARY KEY,
	assigned_to    TEXT REFERENCES app_users(id),
	insight_id     TEXT REFERENCES insights(id),
	opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
	title          TEXT NOT NULL,
	description    TEXT,
	status         TEXT NOT NULL DEFAULT 'open',
	priority       TEXT NOT NULL DEFAULT 'medium',
	due_date       DATE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaigns (
	id             TEXT PRIMARY KEY,
	created_by     TEXT NOT NULL REFERENCES app_users(id),
	topic          TEXT NOT NULL,
	description    TEXT,
	questions      JSONB,
	status         TEXT NOT NULL DEFAULT 'active',
	response_count INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_audience (
	id          TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL REFERENCES campaigns(id),
	user_id     TEXT NOT NULL REFERENCES app_users(id)
);

CREATE TABLE IF NOT EXISTS campaign_responses (
	id           TEXT PRIMARY KEY,
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id),
	user_id      TEXT NOT NULL REFERENCES app_users(id),
	client_id    TEXT REFERENCES clients(id),
	raw_response TEXT NOT NULL,
	summary      TEXT,
	themes       TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_insights_client_status ON insights(client_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stakeholders_client ON stakeholders(client_id);
CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_client ON opportunities(client_id);
CREATE INDEX IF NOT EXISTS idx_tasks_opportunity ON tasks(opportunity_id);
CREATE INDEX IF NOT EXISTS idx_responses_campaign ON campaign_responses(campaign_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_app_users_team ON app_users(team);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// nullif maps empty strings to NULL for optional columns.
func nullif(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// --- Users ---

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	var team *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, full_name, role, team, created_at FROM app_users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &team, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", id)
	}
	u.Team = deref(team)
	return &u, nil
}

func (s *PostgresStore) ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, full_name, role, team, created_at FROM app_users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list users by ids")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var team *string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &team, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan user")
		}
		u.Team = deref(team)
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "postgres: list users iterate")
}

// FirstUserInTeam returns the earliest-created user whose team matches, or
// nil when the team is empty or has no members. First-match semantics are
// intentional; there is no tie-break beyond insertion order.
func (s *PostgresStore) FirstUserInTeam(ctx context.Context, team string) (*model.User, error) {
	if team == "" {
		return nil, nil
	}
	var u model.User
	var t *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, full_name, role, team, created_at FROM app_users WHERE team = $1 ORDER BY created_at ASC LIMIT 1`,
		team,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &t, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: first user in team %s", team)
	}
	u.Team = deref(t)
	return &u, nil
}

// --- Clients and reference data ---

func (s *PostgresStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	var industry, description *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, industry, description, approved_insights_count, created_at FROM clients WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &industry, &description, &c.ApprovedInsightsCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get client %s", id)
	}
	c.Industry = deref(industry)
	c.Description = deref(description)
	return &c, nil
}

func (s *PostgresStore) SearchClientsByName(ctx context.Context, needle string) ([]model.Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, industry, description, approved_insights_count, created_at FROM clients WHERE name ILIKE $1`,
		"%"+needle+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search clients")
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var industry, description *string
		if err := rows.Scan(&c.ID, &c.Name, &industry, &description, &c.ApprovedInsightsCount, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan client")
		}
		c.Industry = deref(industry)
		c.Description = deref(description)
		clients = append(clients, c)
	}
	return clients, eris.Wrap(rows.Err(), "postgres: search clients iterate")
}

func (s *PostgresStore) ListStakeholdersByClient(ctx context.Context, clientID string) ([]model.Stakeholder, error) {
	return s.queryStakeholders(ctx,
		`SELECT id, client_id, name, role, email, notes, created_at FROM stakeholders WHERE client_id = $1`,
		clientID)
}

func (s *PostgresStore) SearchStakeholdersByName(ctx context.Context, needle string) ([]model.Stakeholder, error) {
	return s.queryStakeholders(ctx,
		`SELECT id, client_id, name, role, email, notes, created_at FROM stakeholders WHERE name ILIKE $1`,
		"%"+needle+"%")
}

func (s *PostgresStore) queryStakeholders(ctx context.Context, query string, arg any) ([]model.Stakeholder, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query stakeholders")
	}
	defer rows.Close()

	var out []model.Stakeholder
	for rows.Next() {
		var st model.Stakeholder
		var role, email, notes *string
		if err := rows.Scan(&st.ID, &st.ClientID, &st.Name, &role, &email, &notes, &st.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stakeholder")
		}
		st.Role = deref(role)
		st.Email = deref(email)
		st.Notes = deref(notes)
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "postgres: query stakeholders iterate")
}

func (s *PostgresStore) ListProjectsByClient(ctx context.Context, clientID string) ([]model.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, client_id, name, description, status, created_at FROM projects WHERE client_id = $1`,
		clientID)
}

func (s *PostgresStore) SearchProjectsByName(ctx context.Context, needle string) ([]model.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, client_id, name, description, status, created_at FROM projects WHERE name ILIKE $1`,
		"%"+needle+"%")
}

func (s *PostgresStore) queryProjects(ctx context.Context, query string, arg any) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query projects")
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var description *string
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &description, &p.Status, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		p.Description = deref(description)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: query projects iterate")
}

// --- Insights ---

const insertInsightSQL = `INSERT INTO insights (id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func (s *PostgresStore) CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error) {
	ins.ID = uuid.New().String()
	ins.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, insertInsightSQL,
		ins.ID, ins.AuthorID, ins.ClientID, nullif(ins.ProjectID), nullif(ins.StakeholderID),
		ins.RawText, nullif(ins.Summary), nullif(ins.Themes),
		nullif(string(ins.TimeHorizon)), nullif(string(ins.BudgetSignal)),
		nullif(ins.CompetitorMention), string(ins.Status), ins.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert insight")
	}
	return &ins, nil
}

func (s *PostgresStore) CreateApprovedInsight(ctx context.Context, ins model.Insight) (*model.Insight, int, error) {
	ins.ID = uuid.New().String()
	ins.CreatedAt = time.Now().UTC()
	ins.Status = model.InsightStatusApproved

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: begin create approved insight")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertInsightSQL,
		ins.ID, ins.AuthorID, ins.ClientID, nullif(ins.ProjectID), nullif(ins.StakeholderID),
		ins.RawText, nullif(ins.Summary), nullif(ins.Themes),
		nullif(string(ins.TimeHorizon)), nullif(string(ins.BudgetSignal)),
		nullif(ins.CompetitorMention), string(ins.Status), ins.CreatedAt,
	)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: insert approved insight")
	}

	var newCount int
	err = tx.QueryRow(ctx,
		`UPDATE clients SET approved_insights_count = approved_insights_count + 1 WHERE id = $1 RETURNING approved_insights_count`,
		ins.ClientID,
	).Scan(&newCount)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "postgres: increment approved count for client %s", ins.ClientID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: commit create approved insight")
	}
	return &ins, newCount, nil
}

func (s *PostgresStore) GetInsight(ctx context.Context, id string) (*model.Insight, error) {
	var ins model.Insight
	var projectID, stakeholderID, summary, themes, horizon, budget, competitor *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at FROM insights WHERE id = $1`,
		id,
	).Scan(&ins.ID, &ins.AuthorID, &ins.ClientID, &projectID, &stakeholderID,
		&ins.RawText, &summary, &themes, &horizon, &budget, &competitor, &ins.Status, &ins.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get insight %s", id)
	}
	ins.ProjectID = deref(projectID)
	ins.StakeholderID = deref(stakeholderID)
	ins.Summary = deref(summary)
	ins.Themes = deref(themes)
	ins.TimeHorizon = model.TimeHorizon(deref(horizon))
	ins.BudgetSignal = model.BudgetSignal(deref(budget))
	ins.CompetitorMention = deref(competitor)
	return &ins, nil
}

func (s *PostgresStore) ApproveInsight(ctx context.Context, insightID, clientID string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin approve insight")
	}
	defer tx.Rollback(ctx)

	// Guarded on pending so a concurrent repeat approval cannot double
	// count: the second transaction sees zero rows affected.
	tag, err := tx.Exec(ctx,
		`UPDATE insights SET status = 'approved' WHERE id = $1 AND status = 'pending'`,
		insightID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: approve insight %s", insightID)
	}
	if tag.RowsAffected() == 0 {
		return 0, eris.Wrapf(ErrNotPending, "postgres: approve insight %s", insightID)
	}

	var newCount int
	err = tx.QueryRow(ctx,
		`UPDATE clients SET approved_insights_count = approved_insights_count + 1 WHERE id = $1 RETURNING approved_insights_count`,
		clientID,
	).Scan(&newCount)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: increment approved count for client %s", clientID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit approve insight")
	}
	return newCount, nil
}

func (s *PostgresStore) ListRecentApprovedInsights(ctx context.Context, clientID string, limit int) ([]model.Insight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at
		 FROM insights WHERE client_id = $1 AND status = 'approved'
		 ORDER BY created_at DESC LIMIT $2`,
		clientID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent approved insights")
	}
	defer rows.Close()

	var out []model.Insight
	for rows.Next() {
		var ins model.Insight
		var projectID, stakeholderID, summary, themes, horizon, budget, competitor *string
		if err := rows.Scan(&ins.ID, &ins.AuthorID, &ins.ClientID, &projectID, &stakeholderID,
			&ins.RawText, &summary, &themes, &horizon, &budget, &competitor, &ins.Status, &ins.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan insight")
		}
		ins.ProjectID = deref(projectID)
		ins.StakeholderID = deref(stakeholderID)
		ins.Summary = deref(summary)
		ins.Themes = deref(themes)
		ins.TimeHorizon = model.TimeHorizon(deref(horizon))
		ins.BudgetSignal = model.BudgetSignal(deref(budget))
		ins.CompetitorMention = deref(competitor)
		out = append(out, ins)
	}
	return out, eris.Wrap(rows.Err(), "postgres: recent approved insights iterate")
}

// --- Campaigns ---

func (s *PostgresStore) CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	if c.Status == "" {
		c.Status = model.CampaignStatusActive
	}

	var questionsJSON *[]byte
	if len(c.Questions) > 0 {
		b, err := json.Marshal(c.Questions)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal campaign questions")
		}
		questionsJSON = &b
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, created_by, topic, description, questions, status, response_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`,
		c.ID, c.CreatedBy, c.Topic, nullif(c.Description), questionsJSON, string(c.Status), c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert campaign")
	}
	return &c, nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	var description *string
	var questionsJSON *[]byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_by, topic, description, questions, status, response_count, created_at FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.CreatedBy, &c.Topic, &description, &questionsJSON, &c.Status, &c.ResponseCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get campaign %s", id)
	}
	c.Description = deref(description)
	if questionsJSON != nil {
		if err := json.Unmarshal(*questionsJSON, &c.Questions); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal campaign questions")
		}
	}
	return &c, nil
}

func (s *PostgresStore) AddCampaignAudience(ctx context.Context, campaignID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO campaign_audience (id, campaign_id, user_id) VALUES ($1, $2, $3)`,
			uuid.New().String(), campaignID, userID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert campaign audience %s", userID)
		}
	}
	return nil
}

func (s *PostgresStore) CreateResponse(ctx context.Context, r model.CampaignResponse) (*model.CampaignResponse, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaign_responses (id, campaign_id, user_id, client_id, raw_response, summary, themes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.CampaignID, r.UserID, nullif(r.ClientID), r.RawResponse,
		nullif(r.Summary), nullif(r.Themes), r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert campaign response")
	}
	return &r, nil
}

func (s *PostgresStore) IncrementResponseCount(ctx context.Context, campaignID string) (int, error) {
	var newCount int
	err := s.pool.QueryRow(ctx,
		`UPDATE campaigns SET response_count = response_count + 1 WHERE id = $1 RETURNING response_count`,
		campaignID,
	).Scan(&newCount)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: increment response count for campaign %s", campaignID)
	}
	return newCount, nil
}

func (s *PostgresStore) ListRecentResponses(ctx context.Context, campaignID string, limit int) ([]model.CampaignResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, campaign_id, user_id, client_id, raw_response, summary, themes, created_at
		 FROM campaign_responses WHERE campaign_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		campaignID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent responses")
	}
	defer rows.Close()

	var out []model.CampaignResponse
	for rows.Next() {
		var r model.CampaignResponse
		var clientID, summary, themes *string
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.UserID, &clientID, &r.RawResponse, &summary, &themes, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan response")
		}
		r.ClientID = deref(clientID)
		r.Summary = deref(summary)
		r.Themes = deref(themes)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: recent responses iterate")
}

// --- Opportunities and tasks ---

func (s *PostgresStore) CreateOpportunity(ctx context.Context, o model.Opportunity) (*model.Opportunity, error) {
	o.ID = uuid.New().String()
	o.CreatedAt = time.Now().UTC()
	if o.Stage == "" {
		o.Stage = model.StageIdentified
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO opportunities (id, client_id, insight_id, title, description, value_estimate, stage, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.ClientID, nullif(o.InsightID), o.Title, nullif(o.Description),
		nullif(o.ValueEstimate), string(o.Stage), o.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert opportunity")
	}
	return &o, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	if t.Status == "" {
		t.Status = model.TaskStatusOpen
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, assigned_to, insight_id, opportunity_id, title, description, status, priority, due_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, nullif(t.AssignedTo), nullif(t.InsightID), t.OpportunityID, t.Title,
		nullif(t.Description), string(t.Status), string(t.Priority), t.DueDate, t.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert task")
	}
	return &t, nil
}
