package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"synodvote/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS persons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS elections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			fellowship_id INTEGER NOT NULL,
			scope TEXT NOT NULL,
			diocese_id INTEGER,
			archdeaconry_id INTEGER,
			church_id INTEGER,
			status TEXT NOT NULL DEFAULT 'DRAFT',
			term_start DATETIME,
			term_end DATETIME,
			voting_starts_at DATETIME,
			voting_ends_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS voting_periods (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			election_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'SCHEDULED',
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			FOREIGN KEY (election_id) REFERENCES elections(id)
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			election_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			seats INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (election_id) REFERENCES elections(id)
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			election_id INTEGER NOT NULL,
			position_id INTEGER NOT NULL,
			person_id INTEGER NOT NULL,
			FOREIGN KEY (election_id) REFERENCES elections(id),
			FOREIGN KEY (position_id) REFERENCES positions(id),
			FOREIGN KEY (person_id) REFERENCES persons(id)
		)`,
		`CREATE TABLE IF NOT EXISTS fellowship_memberships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			person_id INTEGER NOT NULL,
			fellowship_id INTEGER NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			diocese_id INTEGER,
			archdeaconry_id INTEGER,
			church_id INTEGER,
			FOREIGN KEY (person_id) REFERENCES persons(id)
		)`,
		`CREATE TABLE IF NOT EXISTS voter_roll_overrides (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			election_id INTEGER NOT NULL,
			person_id INTEGER NOT NULL,
			allow BOOLEAN NOT NULL,
			reason TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (election_id) REFERENCES elections(id),
			FOREIGN KEY (person_id) REFERENCES persons(id),
			UNIQUE(election_id, person_id)
		)`,
		`CREATE TABLE IF NOT EXISTS voting_codes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			election_id INTEGER NOT NULL,
			period_id INTEGER NOT NULL,
			person_id INTEGER NOT NULL,
			code TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			issued_by TEXT NOT NULL,
			issued_at DATETIME NOT NULL,
			used_at DATETIME,
			revoked_at DATETIME,
			revoked_by TEXT,
			expired_at DATETIME,
			remarks TEXT,
			FOREIGN KEY (election_id) REFERENCES elections(id),
			FOREIGN KEY (period_id) REFERENCES voting_periods(id),
			FOREIGN KEY (person_id) REFERENCES persons(id)
		)`,
		`CREATE TABLE IF NOT EXISTS election_votes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			election_id INTEGER NOT NULL,
			period_id INTEGER NOT NULL,
			position_id INTEGER NOT NULL,
			candidate_id INTEGER NOT NULL,
			voter_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'CAST',
			cast_at DATETIME NOT NULL,
			revoked_at DATETIME,
			source TEXT,
			FOREIGN KEY (election_id) REFERENCES elections(id),
			FOREIGN KEY (period_id) REFERENCES voting_periods(id),
			FOREIGN KEY (position_id) REFERENCES positions(id),
			FOREIGN KEY (candidate_id) REFERENCES candidates(id),
			FOREIGN KEY (voter_id) REFERENCES persons(id)
		)`,
		`CREATE TABLE IF NOT EXISTS tally_runs (
			id TEXT PRIMARY KEY,
			election_id INTEGER NOT NULL,
			period_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			started_by TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			completed_by TEXT,
			completed_at DATETIME,
			result_hash TEXT,
			failure_reason TEXT,
			FOREIGN KEY (election_id) REFERENCES elections(id),
			FOREIGN KEY (period_id) REFERENCES voting_periods(id)
		)`,
		`CREATE TABLE IF NOT EXISTS certified_position_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tally_run_id TEXT NOT NULL,
			position_id INTEGER NOT NULL,
			total_ballots INTEGER NOT NULL,
			turnout INTEGER NOT NULL,
			tie BOOLEAN NOT NULL DEFAULT 0,
			FOREIGN KEY (tally_run_id) REFERENCES tally_runs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS certified_candidate_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tally_run_id TEXT NOT NULL,
			position_id INTEGER NOT NULL,
			candidate_id INTEGER NOT NULL,
			votes INTEGER NOT NULL,
			share REAL NOT NULL,
			rank INTEGER NOT NULL,
			winner BOOLEAN NOT NULL DEFAULT 0,
			FOREIGN KEY (tally_run_id) REFERENCES tally_runs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS winner_assignments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tally_run_id TEXT NOT NULL,
			election_id INTEGER NOT NULL,
			position_id INTEGER NOT NULL,
			candidate_id INTEGER NOT NULL,
			person_id INTEGER NOT NULL,
			votes INTEGER NOT NULL,
			assigned_at DATETIME NOT NULL,
			FOREIGN KEY (tally_run_id) REFERENCES tally_runs(id)
		)`,
		// Partial unique indexes are the authoritative invariant guards:
		// application-level pre-checks can race, these cannot.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_codes_one_active
			ON voting_codes(election_id, period_id, person_id) WHERE status = 'ACTIVE'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_one_cast
			ON election_votes(election_id, position_id, voter_id) WHERE status = 'CAST'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tally_one_live
			ON tally_runs(election_id, period_id) WHERE status IN ('PENDING', 'COMPLETED')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_one_open
			ON voting_periods(election_id) WHERE status = 'OPEN'`,
		`CREATE INDEX IF NOT EXISTS idx_votes_position ON election_votes(position_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_election_period ON election_votes(election_id, period_id)`,
		`CREATE INDEX IF NOT EXISTS idx_codes_person ON voting_codes(election_id, period_id, person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_person ON fellowship_memberships(person_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// mapConstraintErr converts sqlite unique-constraint violations into
// repository sentinel errors. The code column gets its own sentinel so the
// issuer can distinguish a generation collision from a real duplicate.
func mapConstraintErr(err error) error {
	var serr sqlite3.Error
	if stderrors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
		if strings.Contains(serr.Error(), "voting_codes.code") {
			return ErrCodeCollision
		}
		return ErrDuplicate
	}
	return err
}

// ==================== Person Methods ====================

// CreatePerson creates a person record
func (r *Repository) CreatePerson(ctx context.Context, fullName string) (int, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO persons (full_name) VALUES (?)`, fullName)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetPerson retrieves a person by ID
func (r *Repository) GetPerson(ctx context.Context, id int) (*models.Person, error) {
	var p models.Person
	err := r.db.QueryRowContext(ctx, `SELECT id, full_name FROM persons WHERE id = ?`, id).
		Scan(&p.ID, &p.FullName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ==================== Election Methods ====================

// CreateElection creates an election
func (r *Repository) CreateElection(ctx context.Context, e models.Election) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO elections (name, fellowship_id, scope, diocese_id, archdeaconry_id, church_id,
			status, term_start, term_end, voting_starts_at, voting_ends_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Name, e.FellowshipID, e.Scope, e.DioceseID, e.ArchdeaconryID, e.ChurchID,
		e.Status, e.TermStart, e.TermEnd, e.VotingStartsAt, e.VotingEndsAt)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetElection retrieves an election by ID
func (r *Repository) GetElection(ctx context.Context, id int) (*models.Election, error) {
	var e models.Election
	var dioceseID, archdeaconryID, churchID sql.NullInt64
	var termStart, termEnd, votingStartsAt, votingEndsAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, fellowship_id, scope, diocese_id, archdeaconry_id, church_id,
			status, term_start, term_end, voting_starts_at, voting_ends_at
		FROM elections WHERE id = ?
	`, id).Scan(&e.ID, &e.Name, &e.FellowshipID, &e.Scope, &dioceseID, &archdeaconryID, &churchID,
		&e.Status, &termStart, &termEnd, &votingStartsAt, &votingEndsAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if dioceseID.Valid {
		v := int(dioceseID.Int64)
		e.DioceseID = &v
	}
	if archdeaconryID.Valid {
		v := int(archdeaconryID.Int64)
		e.ArchdeaconryID = &v
	}
	if churchID.Valid {
		v := int(churchID.Int64)
		e.ChurchID = &v
	}
	e.TermStart = termStart.Time
	e.TermEnd = termEnd.Time
	e.VotingStartsAt = votingStartsAt.Time
	e.VotingEndsAt = votingEndsAt.Time
	return &e, nil
}

// UpdateElectionStatus sets an election's lifecycle status. Transition
// validity is the service layer's responsibility.
func (r *Repository) UpdateElectionStatus(ctx context.Context, id int, status models.ElectionStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE elections SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Voting Period Methods ====================

// CreateVotingPeriod creates a voting period for an election
func (r *Repository) CreateVotingPeriod(ctx context.Context, p models.VotingPeriod) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO voting_periods (election_id, status, starts_at, ends_at) VALUES (?, ?, ?, ?)
	`, p.ElectionID, p.Status, p.StartsAt, p.EndsAt)
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetVotingPeriod retrieves a voting period by ID
func (r *Repository) GetVotingPeriod(ctx context.Context, id int) (*models.VotingPeriod, error) {
	var p models.VotingPeriod
	err := r.db.QueryRowContext(ctx, `
		SELECT id, election_id, status, starts_at, ends_at FROM voting_periods WHERE id = ?
	`, id).Scan(&p.ID, &p.ElectionID, &p.Status, &p.StartsAt, &p.EndsAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePeriodStatus sets a period's status. Opening a period while another
// is OPEN for the same election violates idx_periods_one_open and returns
// ErrDuplicate.
func (r *Repository) UpdatePeriodStatus(ctx context.Context, id int, status models.PeriodStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE voting_periods SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapConstraintErr(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Position and Candidate Methods ====================

// CreatePosition creates a position on an election's ballot
func (r *Repository) CreatePosition(ctx context.Context, p models.Position) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (election_id, title, seats) VALUES (?, ?, ?)
	`, p.ElectionID, p.Title, p.Seats)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetPosition retrieves a position by ID
func (r *Repository) GetPosition(ctx context.Context, id int) (*models.Position, error) {
	var p models.Position
	err := r.db.QueryRowContext(ctx, `
		SELECT id, election_id, title, seats FROM positions WHERE id = ?
	`, id).Scan(&p.ID, &p.ElectionID, &p.Title, &p.Seats)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPositions returns all positions for an election
func (r *Repository) ListPositions(ctx context.Context, electionID int) ([]models.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, election_id, title, seats FROM positions WHERE election_id = ? ORDER BY id
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Title, &p.Seats); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// CreateCandidate creates a ballot candidate
func (r *Repository) CreateCandidate(ctx context.Context, c models.Candidate) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO candidates (election_id, position_id, person_id) VALUES (?, ?, ?)
	`, c.ElectionID, c.PositionID, c.PersonID)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetCandidate retrieves a candidate with the person's name resolved
func (r *Repository) GetCandidate(ctx context.Context, id int) (*models.Candidate, error) {
	var c models.Candidate
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.election_id, c.position_id, c.person_id, p.full_name
		FROM candidates c JOIN persons p ON c.person_id = p.id
		WHERE c.id = ?
	`, id).Scan(&c.ID, &c.ElectionID, &c.PositionID, &c.PersonID, &c.FullName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCandidates returns all candidates for a position
func (r *Repository) ListCandidates(ctx context.Context, positionID int) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.election_id, c.position_id, c.person_id, p.full_name
		FROM candidates c JOIN persons p ON c.person_id = p.id
		WHERE c.position_id = ? ORDER BY c.id
	`, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.PositionID, &c.PersonID, &c.FullName); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ==================== Membership and Override Methods ====================

// CreateMembership records a fellowship membership fact
func (r *Repository) CreateMembership(ctx context.Context, m models.FellowshipMembership) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO fellowship_memberships (person_id, fellowship_id, active, diocese_id, archdeaconry_id, church_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.PersonID, m.FellowshipID, m.Active, m.DioceseID, m.ArchdeaconryID, m.ChurchID)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// ListActiveMemberships returns a person's active memberships in a fellowship
func (r *Repository) ListActiveMemberships(ctx context.Context, personID, fellowshipID int) ([]models.FellowshipMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person_id, fellowship_id, active, diocese_id, archdeaconry_id, church_id
		FROM fellowship_memberships
		WHERE person_id = ? AND fellowship_id = ? AND active = 1
	`, personID, fellowshipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []models.FellowshipMembership
	for rows.Next() {
		var m models.FellowshipMembership
		var dioceseID, archdeaconryID, churchID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.PersonID, &m.FellowshipID, &m.Active, &dioceseID, &archdeaconryID, &churchID); err != nil {
			return nil, err
		}
		if dioceseID.Valid {
			v := int(dioceseID.Int64)
			m.DioceseID = &v
		}
		if archdeaconryID.Valid {
			v := int(archdeaconryID.Int64)
			m.ArchdeaconryID = &v
		}
		if churchID.Valid {
			v := int(churchID.Int64)
			m.ChurchID = &v
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// PutOverride creates or replaces a voter roll override for (election, person)
func (r *Repository) PutOverride(ctx context.Context, o models.VoterRollOverride) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO voter_roll_overrides (election_id, person_id, allow, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(election_id, person_id) DO UPDATE SET
			allow = excluded.allow,
			reason = excluded.reason,
			created_by = excluded.created_by,
			created_at = excluded.created_at
	`, o.ElectionID, o.PersonID, o.Allow, o.Reason, o.CreatedBy, time.Now())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetOverride returns the override for (election, person), or ErrNotFound
func (r *Repository) GetOverride(ctx context.Context, electionID, personID int) (*models.VoterRollOverride, error) {
	var o models.VoterRollOverride
	err := r.db.QueryRowContext(ctx, `
		SELECT id, election_id, person_id, allow, reason, created_by, created_at
		FROM voter_roll_overrides WHERE election_id = ? AND person_id = ?
	`, electionID, personID).Scan(&o.ID, &o.ElectionID, &o.PersonID, &o.Allow, &o.Reason, &o.CreatedBy, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ==================== Voting Code Methods ====================

// InsertCode persists a new ACTIVE voting code. A collision on the code
// string returns ErrCodeCollision; a second ACTIVE code for the same
// (election, period, person) returns ErrDuplicate.
func (r *Repository) InsertCode(ctx context.Context, c *models.VotingCode) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO voting_codes (election_id, period_id, person_id, code, status, issued_by, issued_at, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ElectionID, c.PeriodID, c.PersonID, c.Code, c.Status, c.IssuedBy, c.IssuedAt, c.Remarks)
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	id, err := result.LastInsertId()
	return int(id), err
}

func scanCode(row *sql.Row) (*models.VotingCode, error) {
	var c models.VotingCode
	var usedAt, revokedAt, expiredAt sql.NullTime
	var revokedBy, remarks sql.NullString
	err := row.Scan(&c.ID, &c.ElectionID, &c.PeriodID, &c.PersonID, &c.Code, &c.Status,
		&c.IssuedBy, &c.IssuedAt, &usedAt, &revokedAt, &revokedBy, &expiredAt, &remarks)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	if revokedAt.Valid {
		c.RevokedAt = &revokedAt.Time
	}
	if expiredAt.Valid {
		c.ExpiredAt = &expiredAt.Time
	}
	c.RevokedBy = revokedBy.String
	c.Remarks = remarks.String
	return &c, nil
}

const codeColumns = `id, election_id, period_id, person_id, code, status,
	issued_by, issued_at, used_at, revoked_at, revoked_by, expired_at, remarks`

// GetCode retrieves a voting code by ID
func (r *Repository) GetCode(ctx context.Context, id int) (*models.VotingCode, error) {
	return scanCode(r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM voting_codes WHERE id = ?`, id))
}

// GetCodeByValue retrieves a voting code by its code string
func (r *Repository) GetCodeByValue(ctx context.Context, code string) (*models.VotingCode, error) {
	return scanCode(r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM voting_codes WHERE code = ?`, code))
}

// FindActiveCode returns the ACTIVE code for (election, period, person), or ErrNotFound
func (r *Repository) FindActiveCode(ctx context.Context, electionID, periodID, personID int) (*models.VotingCode, error) {
	return scanCode(r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM voting_codes
		 WHERE election_id = ? AND period_id = ? AND person_id = ? AND status = 'ACTIVE'`,
		electionID, periodID, personID))
}

// MarkCodeUsed transitions an ACTIVE code to USED. Returns ErrStale if the
// code left ACTIVE between read and write.
func (r *Repository) MarkCodeUsed(ctx context.Context, id int, usedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE voting_codes SET status = 'USED', used_at = ? WHERE id = ? AND status = 'ACTIVE'
	`, usedAt, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// RevokeCode transitions an ACTIVE code to REVOKED with actor and reason
func (r *Repository) RevokeCode(ctx context.Context, id int, revokedBy, reason string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE voting_codes SET status = 'REVOKED', revoked_at = ?, revoked_by = ?, remarks = ?
		WHERE id = ? AND status = 'ACTIVE'
	`, at, revokedBy, reason, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// ExpireActiveCodes bulk-transitions all ACTIVE codes for a period to EXPIRED
// and returns how many were expired.
func (r *Repository) ExpireActiveCodes(ctx context.Context, electionID, periodID int, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE voting_codes SET status = 'EXPIRED', expired_at = ?
		WHERE election_id = ? AND period_id = ? AND status = 'ACTIVE'
	`, at, electionID, periodID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ==================== Election Vote Methods ====================

// InsertVote persists a new CAST ballot. A concurrent CAST for the same
// (election, position, voter) violates idx_votes_one_cast and returns
// ErrDuplicate.
func (r *Repository) InsertVote(ctx context.Context, v *models.ElectionVote) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO election_votes (election_id, period_id, position_id, candidate_id, voter_id, status, cast_at, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ElectionID, v.PeriodID, v.PositionID, v.CandidateID, v.VoterID, v.Status, v.CastAt, v.Source)
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	id, err := result.LastInsertId()
	return int(id), err
}

func scanVote(row *sql.Row) (*models.ElectionVote, error) {
	var v models.ElectionVote
	var revokedAt sql.NullTime
	var source sql.NullString
	err := row.Scan(&v.ID, &v.ElectionID, &v.PeriodID, &v.PositionID, &v.CandidateID,
		&v.VoterID, &v.Status, &v.CastAt, &revokedAt, &source)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		v.RevokedAt = &revokedAt.Time
	}
	v.Source = source.String
	return &v, nil
}

const voteColumns = `id, election_id, period_id, position_id, candidate_id,
	voter_id, status, cast_at, revoked_at, source`

// GetVote retrieves a ballot row by ID
func (r *Repository) GetVote(ctx context.Context, id int) (*models.ElectionVote, error) {
	return scanVote(r.db.QueryRowContext(ctx,
		`SELECT `+voteColumns+` FROM election_votes WHERE id = ?`, id))
}

// FindCastVote returns the CAST ballot for (election, position, voter), or ErrNotFound
func (r *Repository) FindCastVote(ctx context.Context, electionID, positionID, voterID int) (*models.ElectionVote, error) {
	return scanVote(r.db.QueryRowContext(ctx,
		`SELECT `+voteColumns+` FROM election_votes
		 WHERE election_id = ? AND position_id = ? AND voter_id = ? AND status = 'CAST'`,
		electionID, positionID, voterID))
}

// RevokeVote transitions a CAST ballot to REVOKED in place. The row and its
// original cast_at survive for the audit trail.
func (r *Repository) RevokeVote(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE election_votes SET status = 'REVOKED', revoked_at = ? WHERE id = ? AND status = 'CAST'
	`, at, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// ReplaceCastVote revokes the voter's existing CAST ballot for the position,
// if any, and inserts the new selection in one transaction. At no point is
// the (election, position, voter) key observable with zero or two CAST rows
// committed.
func (r *Repository) ReplaceCastVote(ctx context.Context, v *models.ElectionVote) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE election_votes SET status = 'REVOKED', revoked_at = ?
		WHERE election_id = ? AND position_id = ? AND voter_id = ? AND status = 'CAST'
	`, v.CastAt, v.ElectionID, v.PositionID, v.VoterID); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO election_votes (election_id, period_id, position_id, candidate_id, voter_id, status, cast_at, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ElectionID, v.PeriodID, v.PositionID, v.CandidateID, v.VoterID, v.Status, v.CastAt, v.Source)
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(id), nil
}

// CandidateTally is one candidate's CAST vote count for a position
type CandidateTally struct {
	CandidateID int
	PersonID    int
	FullName    string
	Votes       int
}

// TallyForPosition returns CAST vote counts per candidate for a position,
// sorted by count descending. Candidates without votes appear with zero.
// REVOKED ballots are excluded by the join condition.
func (r *Repository) TallyForPosition(ctx context.Context, electionID, positionID int) ([]CandidateTally, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.person_id, p.full_name, COUNT(v.id) AS votes
		FROM candidates c
		JOIN persons p ON c.person_id = p.id
		LEFT JOIN election_votes v
			ON v.candidate_id = c.id AND v.election_id = ? AND v.status = 'CAST'
		WHERE c.position_id = ?
		GROUP BY c.id, c.person_id, p.full_name
		ORDER BY votes DESC, c.id
	`, electionID, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []CandidateTally
	for rows.Next() {
		var t CandidateTally
		if err := rows.Scan(&t.CandidateID, &t.PersonID, &t.FullName, &t.Votes); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// CountDistinctVoters returns how many distinct voters hold at least one
// CAST ballot in the (election, period) pair.
func (r *Repository) CountDistinctVoters(ctx context.Context, electionID, periodID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT voter_id) FROM election_votes
		WHERE election_id = ? AND period_id = ? AND status = 'CAST'
	`, electionID, periodID).Scan(&count)
	return count, err
}

// ==================== Tally Run Methods ====================

// InsertTallyRun persists a new PENDING run. A live run already holding the
// (election, period) pair violates idx_tally_one_live and returns ErrDuplicate.
func (r *Repository) InsertTallyRun(ctx context.Context, run *models.TallyRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tally_runs (id, election_id, period_id, status, started_by, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.ElectionID, run.PeriodID, run.Status, run.StartedBy, run.StartedAt)
	return mapConstraintErr(err)
}

func scanTallyRun(row *sql.Row) (*models.TallyRun, error) {
	var run models.TallyRun
	var completedBy, resultHash, failureReason sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.ElectionID, &run.PeriodID, &run.Status, &run.StartedBy,
		&run.StartedAt, &completedBy, &completedAt, &resultHash, &failureReason)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.CompletedBy = completedBy.String
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.ResultHash = resultHash.String
	run.FailureReason = failureReason.String
	return &run, nil
}

const tallyRunColumns = `id, election_id, period_id, status, started_by,
	started_at, completed_by, completed_at, result_hash, failure_reason`

// GetTallyRun retrieves a tally run by ID
func (r *Repository) GetTallyRun(ctx context.Context, id string) (*models.TallyRun, error) {
	return scanTallyRun(r.db.QueryRowContext(ctx,
		`SELECT `+tallyRunColumns+` FROM tally_runs WHERE id = ?`, id))
}

// GetLiveTallyRun returns the PENDING or COMPLETED run for (election, period),
// or ErrNotFound. FAILED and ROLLED_BACK runs are audit history, not live.
func (r *Repository) GetLiveTallyRun(ctx context.Context, electionID, periodID int) (*models.TallyRun, error) {
	return scanTallyRun(r.db.QueryRowContext(ctx,
		`SELECT `+tallyRunColumns+` FROM tally_runs
		 WHERE election_id = ? AND period_id = ? AND status IN ('PENDING', 'COMPLETED')`,
		electionID, periodID))
}

// CompleteCertification persists the certified snapshot, winner assignments
// and run completion in a single transaction. A failure anywhere leaves no
// partial certified rows.
func (r *Repository) CompleteCertification(ctx context.Context, runID, completedBy string, at time.Time, resultHash string,
	positions []models.CertifiedPositionResult, candidates []models.CertifiedCandidateResult, winners []models.WinnerAssignment) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tally_runs SET status = 'COMPLETED', completed_by = ?, completed_at = ?, result_hash = ?
		WHERE id = ? AND status = 'PENDING'
	`, completedBy, at, resultHash, runID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}

	for _, p := range positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO certified_position_results (tally_run_id, position_id, total_ballots, turnout, tie)
			VALUES (?, ?, ?, ?, ?)
		`, runID, p.PositionID, p.TotalBallots, p.Turnout, p.Tie); err != nil {
			return err
		}
	}
	for _, c := range candidates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO certified_candidate_results (tally_run_id, position_id, candidate_id, votes, share, rank, winner)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, c.PositionID, c.CandidateID, c.Votes, c.Share, c.Rank, c.Winner); err != nil {
			return err
		}
	}
	for _, w := range winners {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO winner_assignments (tally_run_id, election_id, position_id, candidate_id, person_id, votes, assigned_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, w.ElectionID, w.PositionID, w.CandidateID, w.PersonID, w.Votes, at); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FailTallyRun marks a PENDING run FAILED with the reason
func (r *Repository) FailTallyRun(ctx context.Context, runID, reason string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tally_runs SET status = 'FAILED', failure_reason = ? WHERE id = ? AND status = 'PENDING'
	`, reason, runID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// RollbackTallyRun moves a COMPLETED run to ROLLED_BACK and deletes its
// certified snapshot and winner assignments in one transaction. The run row
// itself survives as audit history.
func (r *Repository) RollbackTallyRun(ctx context.Context, runID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tally_runs SET status = 'ROLLED_BACK' WHERE id = ? AND status = 'COMPLETED'
	`, runID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}

	for _, table := range []string{"certified_position_results", "certified_candidate_results", "winner_assignments"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE tally_run_id = ?`, runID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListCertifiedPositionResults returns a run's per-position certified rows
func (r *Repository) ListCertifiedPositionResults(ctx context.Context, runID string) ([]models.CertifiedPositionResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tally_run_id, position_id, total_ballots, turnout, tie
		FROM certified_position_results WHERE tally_run_id = ? ORDER BY position_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.CertifiedPositionResult
	for rows.Next() {
		var p models.CertifiedPositionResult
		if err := rows.Scan(&p.ID, &p.TallyRunID, &p.PositionID, &p.TotalBallots, &p.Turnout, &p.Tie); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// ListCertifiedCandidateResults returns a run's per-candidate certified rows
func (r *Repository) ListCertifiedCandidateResults(ctx context.Context, runID string) ([]models.CertifiedCandidateResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tally_run_id, position_id, candidate_id, votes, share, rank, winner
		FROM certified_candidate_results WHERE tally_run_id = ? ORDER BY position_id, rank, candidate_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.CertifiedCandidateResult
	for rows.Next() {
		var c models.CertifiedCandidateResult
		if err := rows.Scan(&c.ID, &c.TallyRunID, &c.PositionID, &c.CandidateID, &c.Votes, &c.Share, &c.Rank, &c.Winner); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// ListWinnerAssignments returns a run's winner rows
func (r *Repository) ListWinnerAssignments(ctx context.Context, runID string) ([]models.WinnerAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tally_run_id, election_id, position_id, candidate_id, person_id, votes, assigned_at
		FROM winner_assignments WHERE tally_run_id = ? ORDER BY position_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var winners []models.WinnerAssignment
	for rows.Next() {
		var w models.WinnerAssignment
		if err := rows.Scan(&w.ID, &w.TallyRunID, &w.ElectionID, &w.PositionID, &w.CandidateID, &w.PersonID, &w.Votes, &w.AssignedAt); err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}
