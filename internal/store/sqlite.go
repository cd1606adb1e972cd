package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/insight-pipeline/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite for local
// development runs without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	// The counter increment is the only cross-request serialization point;
	// a single writer connection keeps SQLite's locking out of the way.
	sqldb.SetMaxOpenConns(1)
	return &SQLiteStore{db: sqldb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS app_users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	full_name  TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'consultant',
	team       TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS clients (
	id                      TEXT PRIMARY KEY,
	name                    TEXT NOT NULL,
	industry                TEXT,
	description             TEXT,
	approved_insights_count INTEGER NOT NULL DEFAULT 0,
	created_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stakeholders (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL REFERENCES clients(id),
	name       TEXT NOT NULL,
	role       TEXT,
	email      TEXT,
	notes      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL REFERENCES clients(id),
	name        TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
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
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS opportunities (
	id             TEXT PRIMARY KEY,
	client_id      TEXT NOT NULL REFERENCES clients(id),
	insight_id     TEXT REFERENCES insights(id),
	title          TEXT NOT NULL,
	description    TEXT,
	value_estimate TEXT,
	stage          TEXT NOT NULL DEFAULT 'identified',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
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
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS campaigns (
	id             TEXT PRIMARY KEY,
	created_by     TEXT NOT NULL REFERENCES app_users(id),
	topic          TEXT NOT NULL,
	description    TEXT,
	questions      TEXT,
	status         TEXT NOT NULL DEFAULT 'active',
	response_count INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
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
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_insights_client_status ON insights(client_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stakeholders_client ON stakeholders(client_id);
CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);
CREATE INDEX IF NOT EXISTS idx_responses_campaign ON campaign_responses(campaign_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_app_users_team ON app_users(team);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, team, created_at FROM app_users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var team sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &team, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: scan user")
	}
	u.Team = team.String
	return &u, nil
}

func (s *SQLiteStore) ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, email, full_name, role, team, created_at FROM app_users WHERE id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list users by ids")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var team sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &team, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan user")
		}
		u.Team = team.String
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "sqlite: list users iterate")
}

func (s *SQLiteStore) FirstUserInTeam(ctx context.Context, team string) (*model.User, error) {
	if team == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, team, created_at FROM app_users WHERE team = ? ORDER BY created_at ASC LIMIT 1`,
		team)
	return scanUser(row)
}

// --- Clients and reference data ---

func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	var industry, description sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, industry, description, approved_insights_count, created_at FROM clients WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &industry, &description, &c.ApprovedInsightsCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get client %s", id)
	}
	c.Industry = industry.String
	c.Description = description.String
	return &c, nil
}

func (s *SQLiteStore) SearchClientsByName(ctx context.Context, needle string) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, industry, description, approved_insights_count, created_at FROM clients WHERE name LIKE ?`,
		"%"+needle+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search clients")
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var industry, description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &industry, &description, &c.ApprovedInsightsCount, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan client")
		}
		c.Industry = industry.String
		c.Description = description.String
		clients = append(clients, c)
	}
	return clients, eris.Wrap(rows.Err(), "sqlite: search clients iterate")
}

func (s *SQLiteStore) ListStakeholdersByClient(ctx context.Context, clientID string) ([]model.Stakeholder, error) {
	return s.queryStakeholders(ctx,
		`SELECT id, client_id, name, role, email, notes, created_at FROM stakeholders WHERE client_id = ?`, clientID)
}

func (s *SQLiteStore) SearchStakeholdersByName(ctx context.Context, needle string) ([]model.Stakeholder, error) {
	return s.queryStakeholders(ctx,
		`SELECT id, client_id, name, role, email, notes, created_at FROM stakeholders WHERE name LIKE ?`, "%"+needle+"%")
}

func (s *SQLiteStore) queryStakeholders(ctx context.Context, query string, arg any) ([]model.Stakeholder, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query stakeholders")
	}
	defer rows.Close()

	var out []model.Stakeholder
	for rows.Next() {
		var st model.Stakeholder
		var role, email, notes sql.NullString
		if err := rows.Scan(&st.ID, &st.ClientID, &st.Name, &role, &email, &notes, &st.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stakeholder")
		}
		st.Role = role.String
		st.Email = email.String
		st.Notes = notes.String
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query stakeholders iterate")
}

func (s *SQLiteStore) ListProjectsByClient(ctx context.Context, clientID string) ([]model.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, client_id, name, description, status, created_at FROM projects WHERE client_id = ?`, clientID)
}

func (s *SQLiteStore) SearchProjectsByName(ctx context.Context, needle string) ([]model.Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, client_id, name, description, status, created_at FROM projects WHERE name LIKE ?`, "%"+needle+"%")
}

func (s *SQLiteStore) queryProjects(ctx context.Context, query string, arg any) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query projects")
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &description, &p.Status, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		p.Description = description.String
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query projects iterate")
}

// --- Insights ---

const sqliteInsertInsight = `INSERT INTO insights (id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error) {
	ins.ID = uuid.New().String()
	ins.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, sqliteInsertInsight,
		ins.ID, ins.AuthorID, ins.ClientID, nullif(ins.ProjectID), nullif(ins.StakeholderID),
		ins.RawText, nullif(ins.Summary), nullif(ins.Themes),
		nullif(string(ins.TimeHorizon)), nullif(string(ins.BudgetSignal)),
		nullif(ins.CompetitorMention), string(ins.Status), ins.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert insight")
	}
	return &ins, nil
}

func (s *SQLiteStore) CreateApprovedInsight(ctx context.Context, ins model.Insight) (*model.Insight, int, error) {
	ins.ID = uuid.New().String()
	ins.CreatedAt = time.Now().UTC()
	ins.Status = model.InsightStatusApproved

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: begin create approved insight")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, sqliteInsertInsight,
		ins.ID, ins.AuthorID, ins.ClientID, nullif(ins.ProjectID), nullif(ins.StakeholderID),
		ins.RawText, nullif(ins.Summary), nullif(ins.Themes),
		nullif(string(ins.TimeHorizon)), nullif(string(ins.BudgetSignal)),
		nullif(ins.CompetitorMention), string(ins.Status), ins.CreatedAt,
	)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: insert approved insight")
	}

	var newCount int
	err = tx.QueryRowContext(ctx,
		`UPDATE clients SET approved_insights_count = approved_insights_count + 1 WHERE id = ? RETURNING approved_insights_count`,
		ins.ClientID,
	).Scan(&newCount)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "sqlite: increment approved count for client %s", ins.ClientID)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: commit create approved insight")
	}
	return &ins, newCount, nil
}

func (s *SQLiteStore) GetInsight(ctx context.Context, id string) (*model.Insight, error) {
	var ins model.Insight
	var projectID, stakeholderID, summary, themes, horizon, budget, competitor sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at FROM insights WHERE id = ?`,
		id,
	).Scan(&ins.ID, &ins.AuthorID, &ins.ClientID, &projectID, &stakeholderID,
		&ins.RawText, &summary, &themes, &horizon, &budget, &competitor, &ins.Status, &ins.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get insight %s", id)
	}
	ins.ProjectID = projectID.String
	ins.StakeholderID = stakeholderID.String
	ins.Summary = summary.String
	ins.Themes = themes.String
	ins.TimeHorizon = model.TimeHorizon(horizon.String)
	ins.BudgetSignal = model.BudgetSignal(budget.String)
	ins.CompetitorMention = competitor.String
	return &ins, nil
}

func (s *SQLiteStore) ApproveInsight(ctx context.Context, insightID, clientID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin approve insight")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE insights SET status = 'approved' WHERE id = ? AND status = 'pending'`,
		insightID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: approve insight %s", insightID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return 0, eris.Wrapf(ErrNotPending, "sqlite: approve insight %s", insightID)
	}

	var newCount int
	err = tx.QueryRowContext(ctx,
		`UPDATE clients SET approved_insights_count = approved_insights_count + 1 WHERE id = ? RETURNING approved_insights_count`,
		clientID,
	).Scan(&newCount)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: increment approved count for client %s", clientID)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit approve insight")
	}
	return newCount, nil
}

func (s *SQLiteStore) ListRecentApprovedInsights(ctx context.Context, clientID string, limit int) ([]model.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, author_id, client_id, project_id, stakeholder_id, raw_text, summary, themes, time_horizon, budget_signal, competitor_mention, status, created_at
		 FROM insights WHERE client_id = ? AND status = 'approved'
		 ORDER BY created_at DESC LIMIT ?`,
		clientID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent approved insights")
	}
	defer rows.Close()

	var out []model.Insight
	for rows.Next() {
		var ins model.Insight
		var projectID, stakeholderID, summary, themes, horizon, budget, competitor sql.NullString
		if err := rows.Scan(&ins.ID, &ins.AuthorID, &ins.ClientID, &projectID, &stakeholderID,
			&ins.RawText, &summary, &themes, &horizon, &budget, &competitor, &ins.Status, &ins.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan insight")
		}
		ins.ProjectID = projectID.String
		ins.StakeholderID = stakeholderID.String
		ins.Summary = summary.String
		ins.Themes = themes.String
		ins.TimeHorizon = model.TimeHorizon(horizon.String)
		ins.BudgetSignal = model.BudgetSignal(budget.String)
		ins.CompetitorMention = competitor.String
		out = append(out, ins)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: recent approved insights iterate")
}

// --- Campaigns ---

func (s *SQLiteStore) CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	if c.Status == "" {
		c.Status = model.CampaignStatusActive
	}

	var questionsJSON *string
	if len(c.Questions) > 0 {
		b, err := json.Marshal(c.Questions)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal campaign questions")
		}
		str := string(b)
		questionsJSON = &str
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, created_by, topic, description, questions, status, response_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		c.ID, c.CreatedBy, c.Topic, nullif(c.Description), questionsJSON, string(c.Status), c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert campaign")
	}
	return &c, nil
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	var description, questionsJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_by, topic, description, questions, status, response_count, created_at FROM campaigns WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.CreatedBy, &c.Topic, &description, &questionsJSON, &c.Status, &c.ResponseCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get campaign %s", id)
	}
	c.Description = description.String
	if questionsJSON.Valid && questionsJSON.String != "" {
		if err := json.Unmarshal([]byte(questionsJSON.String), &c.Questions); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal campaign questions")
		}
	}
	return &c, nil
}

func (s *SQLiteStore) AddCampaignAudience(ctx context.Context, campaignID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO campaign_audience (id, campaign_id, user_id) VALUES (?, ?, ?)`,
			uuid.New().String(), campaignID, userID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert campaign audience %s", userID)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateResponse(ctx context.Context, r model.CampaignResponse) (*model.CampaignResponse, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaign_responses (id, campaign_id, user_id, client_id, raw_response, summary, themes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CampaignID, r.UserID, nullif(r.ClientID), r.RawResponse,
		nullif(r.Summary), nullif(r.Themes), r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert campaign response")
	}
	return &r, nil
}

func (s *SQLiteStore) IncrementResponseCount(ctx context.Context, campaignID string) (int, error) {
	var newCount int
	err := s.db.QueryRowContext(ctx,
		`UPDATE campaigns SET response_count = response_count + 1 WHERE id = ? RETURNING response_count`,
		campaignID,
	).Scan(&newCount)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: increment response count for campaign %s", campaignID)
	}
	return newCount, nil
}

func (s *SQLiteStore) ListRecentResponses(ctx context.Context, campaignID string, limit int) ([]model.CampaignResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, campaign_id, user_id, client_id, raw_response, summary, themes, created_at
		 FROM campaign_responses WHERE campaign_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		campaignID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent responses")
	}
	defer rows.Close()

	var out []model.CampaignResponse
	for rows.Next() {
		var r model.CampaignResponse
		var clientID, summary, themes sql.NullString
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.UserID, &clientID, &r.RawResponse, &summary, &themes, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan response")
		}
		r.ClientID = clientID.String
		r.Summary = summary.String
		r.Themes = themes.String
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: recent responses iterate")
}

// --- Opportunities and tasks ---

func (s *SQLiteStore) CreateOpportunity(ctx context.Context, o model.Opportunity) (*model.Opportunity, error) {
	o.ID = uuid.New().String()
	o.CreatedAt = time.Now().UTC()
	if o.Stage == "" {
		o.Stage = model.StageIdentified
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO opportunities (id, client_id, insight_id, title, description, value_estimate, stage, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ClientID, nullif(o.InsightID), o.Title, nullif(o.Description),
		nullif(o.ValueEstimate), string(o.Stage), o.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert opportunity")
	}
	return &o, nil
}

func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	if t.Status == "" {
		t.Status = model.TaskStatusOpen
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, assigned_to, insight_id, opportunity_id, title, description, status, priority, due_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullif(t.AssignedTo), nullif(t.InsightID), t.OpportunityID, t.Title,
		nullif(t.Description), string(t.Status), string(t.Priority), t.DueDate, t.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert task")
	}
	return &t, nil
}
