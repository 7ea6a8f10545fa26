package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kilometri/internal/core"

	"github.com/shopspring/decimal"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrDuplicateReport is returned when a report insert hits the
// (user_id, year, month) unique constraint. Callers turn this into a
// conflict response by loading the existing row.
var ErrDuplicateReport = errors.New("report already exists for period")

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, company, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Company, u.Phone, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username or email already taken: %w", err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, first_name, last_name, company, phone, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, first_name, last_name, company, phone, created_at, updated_at
		FROM users WHERE username = ?`, username))
}

func (r *Repository) UpdateUserProfile(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET email = ?, first_name = ?, last_name = ?, company = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.FirstName, u.LastName, u.Company, u.Phone, time.Now().UTC(), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Company, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// --- trips ---

const tripColumns = `id, user_id, date, start_address, end_address, distance_km, purpose, is_manual, route_data, created_at, updated_at`

func (r *Repository) CreateTrip(ctx context.Context, t *core.Trip) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (user_id, date, start_address, end_address, distance_km, purpose, is_manual, route_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Date.Format(dateLayout), t.StartAddress, t.EndAddress,
		t.DistanceKm.StringFixed(2), t.Purpose, t.IsManual, nullJSON(t.RouteData), now, now)
	if err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create trip id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (r *Repository) GetTrip(ctx context.Context, userID, id int64) (core.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tripColumns+` FROM trips WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Trip{}, fmt.Errorf("get trip: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Trip{}, fmt.Errorf("get trip: %w", err)
		}
		return core.Trip{}, core.ErrNotFound
	}
	return scanTrip(rows)
}

// ListTrips returns all trips of one user matching the filter, newest first.
func (r *Repository) ListTrips(ctx context.Context, userID int64, filter core.TripFilter) ([]core.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE user_id = ?`
	args := []any{userID}

	if filter.Date != nil {
		query += ` AND date = ?`
		args = append(args, filter.Date.Format(dateLayout))
	}
	if filter.DateAfter != nil {
		query += ` AND date >= ?`
		args = append(args, filter.DateAfter.Format(dateLayout))
	}
	if filter.DateBefore != nil {
		query += ` AND date <= ?`
		args = append(args, filter.DateBefore.Format(dateLayout))
	}
	if filter.IsManual != nil {
		query += ` AND is_manual = ?`
		args = append(args, *filter.IsManual)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

// ListTripsByPeriod returns one user's trips with dates inside [first, last],
// ordered by date ascending for report tables.
func (r *Repository) ListTripsByPeriod(ctx context.Context, userID int64, first, last time.Time) ([]core.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE user_id = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC, id ASC`,
		userID, first.Format(dateLayout), last.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list trips by period: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

func (r *Repository) UpdateTrip(ctx context.Context, t *core.Trip) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET date = ?, start_address = ?, end_address = ?, distance_km = ?, purpose = ?, is_manual = ?, route_data = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Date.Format(dateLayout), t.StartAddress, t.EndAddress, t.DistanceKm.StringFixed(2),
		t.Purpose, t.IsManual, nullJSON(t.RouteData), now, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

func (r *Repository) DeleteTrip(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return requireRow(res)
}

func collectTrips(rows *sql.Rows) ([]core.Trip, error) {
	var trips []core.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trips: %w", err)
	}
	return trips, nil
}

func scanTrip(rows *sql.Rows) (core.Trip, error) {
	var (
		t         core.Trip
		date      string
		distance  string
		routeData sql.NullString
	)
	err := rows.Scan(&t.ID, &t.UserID, &date, &t.StartAddress, &t.EndAddress,
		&distance, &t.Purpose, &t.IsManual, &routeData, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Trip{}, fmt.Errorf("scan trip: %w", err)
	}
	t.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return core.Trip{}, fmt.Errorf("parse trip date %q: %w", date, err)
	}
	t.DistanceKm, err = decimal.NewFromString(distance)
	if err != nil {
		return core.Trip{}, fmt.Errorf("parse trip distance %q: %w", distance, err)
	}
	if routeData.Valid {
		t.RouteData = json.RawMessage(routeData.String)
	}
	return t, nil
}

// --- monthly reports ---

const reportColumns = `id, user_id, year, month, total_km, trip_count, pdf_file, excel_file, sent_at, created_at`

func (r *Repository) CreateReport(ctx context.Context, rep *core.MonthlyReport) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_reports (user_id, year, month, total_km, trip_count, pdf_file, excel_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.UserID, rep.Year, rep.Month, rep.TotalKm.StringFixed(2), rep.TripCount,
		rep.PDFFile, rep.ExcelFile, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReport
		}
		return fmt.Errorf("create report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create report id: %w", err)
	}
	rep.ID = id
	rep.CreatedAt = now
	return nil
}

func (r *Repository) GetReport(ctx context.Context, userID, id int64) (core.MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("get report: %w", err)
	}
	defer rows.Close()
	return oneReport(rows)
}

// GetReportByID loads a report without an ownership filter; the delivery
// worker uses it after receiving a queue message.
func (r *Repository) GetReportByID(ctx context.Context, id int64) (core.MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports WHERE id = ?`, id)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("get report: %w", err)
	}
	defer rows.Close()
	return oneReport(rows)
}

func (r *Repository) GetReportByPeriod(ctx context.Context, userID int64, year, month int) (core.MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, month)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("get report by period: %w", err)
	}
	defer rows.Close()
	return oneReport(rows)
}

// ListReports returns one user's reports, newest period first.
func (r *Repository) ListReports(ctx context.Context, userID int64) ([]core.MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports WHERE user_id = ?
		ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []core.MonthlyReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func (r *Repository) SetReportFiles(ctx context.Context, id int64, pdfFile, excelFile string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE monthly_reports SET pdf_file = ?, excel_file = ? WHERE id = ?`, pdfFile, excelFile, id)
	if err != nil {
		return fmt.Errorf("set report files: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) MarkReportSent(ctx context.Context, id int64, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE monthly_reports SET sent_at = ? WHERE id = ? AND sent_at IS NULL`, sentAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark report sent: %w", err)
	}
	return requireRow(res)
}

// ListUnsentReports returns reports still awaiting delivery, oldest first.
func (r *Repository) ListUnsentReports(ctx context.Context, limit int) ([]core.MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM monthly_reports WHERE sent_at IS NULL
		ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsent reports: %w", err)
	}
	defer rows.Close()

	var reports []core.MonthlyReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unsent reports: %w", err)
	}
	return reports, nil
}

func oneReport(rows *sql.Rows) (core.MonthlyReport, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.MonthlyReport{}, fmt.Errorf("read report: %w", err)
		}
		return core.MonthlyReport{}, core.ErrNotFound
	}
	return scanReport(rows)
}

func scanReport(rows *sql.Rows) (core.MonthlyReport, error) {
	var (
		rep     core.MonthlyReport
		totalKm string
		sentAt  sql.NullTime
	)
	err := rows.Scan(&rep.ID, &rep.UserID, &rep.Year, &rep.Month, &totalKm,
		&rep.TripCount, &rep.PDFFile, &rep.ExcelFile, &sentAt, &rep.CreatedAt)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("scan report: %w", err)
	}
	rep.TotalKm, err = decimal.NewFromString(totalKm)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("parse report total %q: %w", totalKm, err)
	}
	if sentAt.Valid {
		t := sentAt.Time
		rep.SentAt = &t
	}
	return rep, nil
}

// --- helpers ---

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullJSON(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}
