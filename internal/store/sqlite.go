package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		phone TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		sex TEXT NOT NULL DEFAULT '',
		date_of_birth INTEGER,
		region_id TEXT NOT NULL DEFAULT '',
		school_id TEXT NOT NULL DEFAULT '',
		owns_farm INTEGER,
		farm_size_acres REAL,
		is_registered INTEGER NOT NULL DEFAULT 0,
		join_method TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS customer_commodities (
		customer_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (customer_id, kind, name)
	);

	CREATE TABLE IF NOT EXISTS customer_misc (
		customer_id TEXT PRIMARY KEY,
		raw_crop_text TEXT NOT NULL DEFAULT '',
		crop_unmatched INTEGER NOT NULL DEFAULT 0,
		raw_livestock_text TEXT NOT NULL DEFAULT '',
		livestock_unmatched INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS planting_records (
		customer_id TEXT NOT NULL,
		crop TEXT NOT NULL,
		planted_at INTEGER,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (customer_id, crop)
	);

	CREATE TABLE IF NOT EXISTS surveys (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		title TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		responses TEXT NOT NULL DEFAULT '{}',
		finished_at INTEGER,
		cancelled INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		UNIQUE (customer_id, title)
	);
	CREATE INDEX IF NOT EXISTS idx_surveys_title ON surveys(title) WHERE finished_at IS NOT NULL;

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		phone TEXT NOT NULL,
		flow_type TEXT NOT NULL,
		state BLOB NOT NULL,
		finished INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_key ON sessions(phone, flow_type, updated_at);

	CREATE TABLE IF NOT EXISTS boundaries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		level TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_boundaries_name ON boundaries(name COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS schools (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region_id TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL DEFAULT 0,
		lon REAL NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const customerColumns = `id, phone, first_name, last_name, sex, date_of_birth,
	region_id, school_id, owns_farm, farm_size_acres, is_registered,
	join_method, language, created_at, updated_at`

func (s *SQLiteStore) scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	var dob, ownsFarm sql.NullInt64
	var farmSize sql.NullFloat64
	var createdAt, updatedAt int64

	err := row.Scan(
		&c.ID, &c.Phone, &c.FirstName, &c.LastName, &c.Sex, &dob,
		&c.RegionID, &c.SchoolID, &ownsFarm, &farmSize, &c.IsRegistered,
		&c.JoinMethod, &c.Language, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer row: %w", err)
	}

	if dob.Valid {
		t := time.Unix(dob.Int64, 0).UTC()
		c.DateOfBirth = &t
	}
	if ownsFarm.Valid {
		v := ownsFarm.Int64 != 0
		c.OwnsFarm = &v
	}
	if farmSize.Valid {
		v := farmSize.Float64
		c.FarmSizeAcres = &v
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &c, nil
}

// GetCustomerByPhone retrieves a customer by phone number.
func (s *SQLiteStore) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = ?`
	c, err := s.scanCustomer(s.db.QueryRowContext(ctx, query, phone))
	if err != nil || c == nil {
		return nil, err
	}

	if c.Crops, err = s.listCommodities(ctx, c.ID, domain.CommodityCrop); err != nil {
		return nil, err
	}
	if c.Livestock, err = s.listCommodities(ctx, c.ID, domain.CommodityLivestock); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) listCommodities(ctx context.Context, customerID, kind string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM customer_commodities WHERE customer_id = ? AND kind = ? ORDER BY name`,
		customerID, kind)
	if err != nil {
		return nil, fmt.Errorf("query commodities: %w", err)
	}
	defer closeRows(rows, "commodities")

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan commodity row: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// CreateCustomer inserts a new customer record.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	query := `
	INSERT INTO customers (id, phone, first_name, last_name, sex, date_of_birth,
		region_id, school_id, owns_farm, farm_size_acres, is_registered,
		join_method, language, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var dob, ownsFarm, farmSize any
	if c.DateOfBirth != nil {
		dob = c.DateOfBirth.Unix()
	}
	if c.OwnsFarm != nil {
		ownsFarm = boolToInt(*c.OwnsFarm)
	}
	if c.FarmSizeAcres != nil {
		farmSize = *c.FarmSizeAcres
	}

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Phone, c.FirstName, c.LastName, c.Sex, dob,
		c.RegionID, c.SchoolID, ownsFarm, farmSize, boolToInt(c.IsRegistered),
		c.JoinMethod, c.Language, c.CreatedAt.Unix(), c.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// customerFieldColumns is the allowlist of columns the narrow update may touch.
var customerFieldColumns = map[string]bool{
	"first_name":      true,
	"last_name":       true,
	"sex":             true,
	"date_of_birth":   true,
	"region_id":       true,
	"school_id":       true,
	"owns_farm":       true,
	"farm_size_acres": true,
	"is_registered":   true,
	"language":        true,
}

// UpdateCustomerFields performs a narrow field-list update.
func (s *SQLiteStore) UpdateCustomerFields(ctx context.Context, customerID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if !customerFieldColumns[name] {
			return fmt.Errorf("update customer: field %q not allowed", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sets []string
	var args []any
	for _, name := range names {
		sets = append(sets, name+" = ?")
		args = append(args, toDBValue(fields[name]))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), customerID)

	query := `UPDATE customers SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update customer fields: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateCustomerFields affected 0 rows", "customer_id", customerID)
	}
	return nil
}

func toDBValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return boolToInt(t)
	case time.Time:
		return t.Unix()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Unix()
	default:
		return v
	}
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// ReplaceCommodities replaces the customer's commodity set of one kind.
func (s *SQLiteStore) ReplaceCommodities(ctx context.Context, customerID, kind string, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commodity tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM customer_commodities WHERE customer_id = ? AND kind = ?`,
		customerID, kind); err != nil {
		return fmt.Errorf("clear commodities: %w", err)
	}
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO customer_commodities (customer_id, kind, name) VALUES (?, ?, ?)`,
			customerID, kind, name); err != nil {
			return fmt.Errorf("insert commodity %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit commodity tx: %w", err)
	}
	return nil
}

// GetMiscData retrieves the customer's scratch record.
func (s *SQLiteStore) GetMiscData(ctx context.Context, customerID string) (*domain.CustomerMiscData, error) {
	query := `
		SELECT customer_id, raw_crop_text, crop_unmatched,
		       raw_livestock_text, livestock_unmatched, created_at, updated_at
		FROM customer_misc WHERE customer_id = ?`

	var md domain.CustomerMiscData
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, customerID).Scan(
		&md.CustomerID, &md.RawCropText, &md.CropUnmatched,
		&md.RawLivestockText, &md.LivestockUnmatched, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan misc data: %w", err)
	}
	md.CreatedAt = time.Unix(createdAt, 0).UTC()
	md.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &md, nil
}

// UpsertMiscData creates or updates the customer's scratch record.
func (s *SQLiteStore) UpsertMiscData(ctx context.Context, md *domain.CustomerMiscData) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO customer_misc (customer_id, raw_crop_text, crop_unmatched,
			raw_livestock_text, livestock_unmatched, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			raw_crop_text = excluded.raw_crop_text,
			crop_unmatched = excluded.crop_unmatched,
			raw_livestock_text = excluded.raw_livestock_text,
			livestock_unmatched = excluded.livestock_unmatched,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		md.CustomerID, md.RawCropText, md.CropUnmatched,
		md.RawLivestockText, md.LivestockUnmatched, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert misc data: %w", err)
	}
	return nil
}

// ListPlantingRecords returns all planting records for a customer.
func (s *SQLiteStore) ListPlantingRecords(ctx context.Context, customerID string) ([]*domain.PlantingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id, crop, planted_at, updated_at FROM planting_records WHERE customer_id = ? ORDER BY crop`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("query planting records: %w", err)
	}
	defer closeRows(rows, "planting records")

	var recs []*domain.PlantingRecord
	for rows.Next() {
		var rec domain.PlantingRecord
		var plantedAt sql.NullInt64
		var updatedAt int64
		if err := rows.Scan(&rec.CustomerID, &rec.Crop, &plantedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan planting record: %w", err)
		}
		if plantedAt.Valid {
			t := time.Unix(plantedAt.Int64, 0).UTC()
			rec.PlantedAt = &t
		}
		rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// UpsertPlantingRecord creates or updates one (customer, crop) planting record.
func (s *SQLiteStore) UpsertPlantingRecord(ctx context.Context, rec *domain.PlantingRecord) error {
	var plantedAt any
	if rec.PlantedAt != nil {
		plantedAt = rec.PlantedAt.Unix()
	}
	query := `
		INSERT INTO planting_records (customer_id, crop, planted_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(customer_id, crop) DO UPDATE SET
			planted_at = excluded.planted_at,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, rec.CustomerID, rec.Crop, plantedAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert planting record: %w", err)
	}
	return nil
}

// GetSurvey retrieves the survey document for (customer, title).
func (s *SQLiteStore) GetSurvey(ctx context.Context, customerID, title string) (*domain.CustomerSurvey, error) {
	query := `
		SELECT id, customer_id, title, language, responses, finished_at, cancelled, created_at
		FROM surveys WHERE customer_id = ? AND title = ?`

	var sv domain.CustomerSurvey
	var responses string
	var finishedAt sql.NullInt64
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, customerID, domain.NormalizeSurveyTitle(title)).Scan(
		&sv.ID, &sv.CustomerID, &sv.Title, &sv.Language, &responses, &finishedAt, &sv.Cancelled, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan survey: %w", err)
	}

	if err := decodeJSONMap(responses, &sv.Responses); err != nil {
		return nil, fmt.Errorf("decode survey responses: %w", err)
	}
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0).UTC()
		sv.FinishedAt = &t
	}
	sv.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &sv, nil
}

// CreateSurvey inserts a new survey document.
func (s *SQLiteStore) CreateSurvey(ctx context.Context, sv *domain.CustomerSurvey) error {
	responses, err := encodeJSONMap(sv.Responses)
	if err != nil {
		return fmt.Errorf("encode survey responses: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO surveys (id, customer_id, title, language, responses, finished_at, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		sv.ID, sv.CustomerID, domain.NormalizeSurveyTitle(sv.Title), sv.Language, responses, sv.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

// SaveSurveyAnswer records one answer under a question key. The finished_at
// guard enforces document immutability after finalization.
func (s *SQLiteStore) SaveSurveyAnswer(ctx context.Context, surveyID, key, value string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE surveys SET responses = json_set(responses, '$.' || ?, ?)
		 WHERE id = ? AND finished_at IS NULL`,
		key, value, surveyID,
	)
	if err != nil {
		return fmt.Errorf("save survey answer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("save survey answer: survey %s missing or already finished", surveyID)
	}
	return nil
}

// FinishSurvey sets the finished timestamp.
func (s *SQLiteStore) FinishSurvey(ctx context.Context, surveyID string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE surveys SET finished_at = ? WHERE id = ? AND finished_at IS NULL`,
		finishedAt.Unix(), surveyID,
	)
	if err != nil {
		return fmt.Errorf("finish survey: %w", err)
	}
	return nil
}

// CancelSurvey finalizes a document without counting it as a completed
// response: the cancelled flag keeps quota-rejected respondents out of the
// quota tally while still making the document immutable and non-resumable.
func (s *SQLiteStore) CancelSurvey(ctx context.Context, surveyID string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE surveys SET finished_at = ?, cancelled = 1 WHERE id = ? AND finished_at IS NULL`,
		finishedAt.Unix(), surveyID,
	)
	if err != nil {
		return fmt.Errorf("cancel survey: %w", err)
	}
	return nil
}

// CountFinishedSurveys counts finished, non-cancelled documents whose answer
// under questionKey equals answer. Backs the demographic quota check.
func (s *SQLiteStore) CountFinishedSurveys(ctx context.Context, title, questionKey, answer string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM surveys
		 WHERE title = ? AND finished_at IS NOT NULL AND cancelled = 0
		   AND json_extract(responses, '$.' || ?) = ?`,
		domain.NormalizeSurveyTitle(title), questionKey, answer,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count finished surveys: %w", err)
	}
	return n, nil
}

// LatestSession returns the most recently updated session for (phone, flow type).
func (s *SQLiteStore) LatestSession(ctx context.Context, phone, flowType string) (*domain.DialogSession, error) {
	query := `
		SELECT id, phone, flow_type, state, finished, created_at, updated_at
		FROM sessions WHERE phone = ? AND flow_type = ?
		ORDER BY updated_at DESC, created_at DESC LIMIT 1`

	var sess domain.DialogSession
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, phone, flowType).Scan(
		&sess.ID, &sess.Phone, &sess.FlowType, &sess.State, &sess.Finished, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &sess, nil
}

// SaveSession creates or updates a session record by id. Retried on
// SQLITE_BUSY since duplicate gateway retries can land close together.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *domain.DialogSession) error {
	query := `
		INSERT INTO sessions (id, phone, flow_type, state, finished, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			finished = excluded.finished,
			updated_at = excluded.updated_at`

	return execWithRetry(ctx, "save session", func() error {
		_, err := s.db.ExecContext(ctx, query,
			sess.ID, sess.Phone, sess.FlowType, sess.State, boolToInt(sess.Finished),
			sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
		)
		return err
	})
}

// ReapSessions deletes finished or stale session rows not touched within the
// threshold.
func (s *SQLiteStore) ReapSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	threshold := time.Now().Add(-olderThan).Unix()
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ? OR (finished = 1 AND updated_at < ?)`,
		threshold, time.Now().Add(-time.Hour).Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("reap sessions: %w", err)
	}
	return result.RowsAffected()
}

// FindBoundaries returns boundary records matching a name within a country.
// Ordered by id so the caller's deterministic tie-break (lowest id wins) is a
// stable contract.
func (s *SQLiteStore) FindBoundaries(ctx context.Context, name, country string) ([]*domain.Boundary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, level, parent_id, country FROM boundaries
		 WHERE name = ? COLLATE NOCASE AND (country = ? OR ? = '')
		 ORDER BY id`,
		strings.TrimSpace(name), country, country)
	if err != nil {
		return nil, fmt.Errorf("query boundaries: %w", err)
	}
	defer closeRows(rows, "boundaries")

	var out []*domain.Boundary
	for rows.Next() {
		var b domain.Boundary
		if err := rows.Scan(&b.ID, &b.Name, &b.Level, &b.ParentID, &b.Country); err != nil {
			return nil, fmt.Errorf("scan boundary: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// AddBoundary inserts a boundary reference record.
func (s *SQLiteStore) AddBoundary(ctx context.Context, b *domain.Boundary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO boundaries (id, name, level, parent_id, country) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Level, b.ParentID, b.Country,
	)
	if err != nil {
		return fmt.Errorf("insert boundary: %w", err)
	}
	return nil
}

// ListSchools returns the full school corpus.
func (s *SQLiteStore) ListSchools(ctx context.Context) ([]*domain.School, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region_id, lat, lon FROM schools ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query schools: %w", err)
	}
	defer closeRows(rows, "schools")

	var out []*domain.School
	for rows.Next() {
		var sc domain.School
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.RegionID, &sc.Lat, &sc.Lon); err != nil {
			return nil, fmt.Errorf("scan school: %w", err)
		}
		out = append(out, &sc)
	}
	return out, rows.Err()
}

// AddSchool inserts a school reference record.
func (s *SQLiteStore) AddSchool(ctx context.Context, sc *domain.School) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schools (id, name, region_id, lat, lon) VALUES (?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.RegionID, sc.Lat, sc.Lon,
	)
	if err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "what", what, "error", err)
	}
}

func encodeJSONMap(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSONMap(s string, out *map[string]string) error {
	if strings.TrimSpace(s) == "" {
		*out = map[string]string{}
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}
