package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Store struct {
	DB *sql.DB
}

type EmployeeInput struct {
	ID        string
	FirstName string
	LastName  string
	DOB       string
	Role      string
	Password  string
}

type TaskInput struct {
	ID          string
	Name        string
	Status      string
	DateCreated string
	EmployeeIDs []string
}

type HistoryEntry struct {
	ID        int64
	TaskID    string
	EventType string
	Details   string
	CreatedAt time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateEmployee(ctx context.Context, input EmployeeInput) (model.Profile, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return model.Profile{}, fmt.Errorf("employee id is required")
	}
	if input.Password == "" {
		return model.Profile{}, fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO employees (id, first_name, last_name, dob, role, password_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(input.FirstName), strings.TrimSpace(input.LastName), strings.TrimSpace(input.DOB), strings.TrimSpace(input.Role), string(hash),
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("create employee %s: %w", id, err)
	}

	return s.GetEmployee(ctx, id)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (model.Profile, error) {
	var profile model.Profile
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, dob, role FROM employees WHERE id = ?`, id,
	).Scan(&profile.ID, &profile.FirstName, &profile.LastName, &profile.DOB, &profile.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

// Authenticate checks a password against the stored hash. Unknown ids and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, id, password string) (model.User, error) {
	var hash string
	err := s.DB.QueryRowContext(ctx, `SELECT password_hash FROM employees WHERE id = ?`, strings.TrimSpace(id)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return model.User{ID: strings.TrimSpace(id)}, nil
}

func (s *Store) CreateTask(ctx context.Context, input TaskInput) (model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Task{}, fmt.Errorf("task name is required")
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	dateCreated := strings.TrimSpace(input.DateCreated)
	if dateCreated == "" {
		dateCreated = time.Now().Format("2006-01-02")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (id, name, status, date_created) VALUES (?, ?, ?, ?)`,
		id, name, normalizeStatus(input.Status), dateCreated,
	); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	for position, employeeID := range normalizeIDs(input.EmployeeIDs) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_employees (task_id, employee_id, position) VALUES (?, ?, ?)`,
			id, employeeID, position,
		); err != nil {
			return model.Task{}, fmt.Errorf("assign employee %s: %w", employeeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}

	created, err := s.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if err := s.addHistory(ctx, id, "created", formatTaskDetails("created", created)); err != nil {
		return model.Task{}, err
	}
	return created, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, status, date_created FROM tasks WHERE id = ?`, id,
	).Scan(&task.ID, &task.Name, &task.Status, &task.DateCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, err
	}

	ids, err := s.taskEmployeeIDs(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	task.EmployeeIDs = ids
	return task, nil
}

// ListTasks returns tasks newest first. A non-empty employeeID restricts the
// list to tasks that employee is assigned to.
func (s *Store) ListTasks(ctx context.Context, employeeID string) ([]model.Task, error) {
	query := `SELECT id, name, status, date_created FROM tasks ORDER BY date_created DESC, created_at DESC`
	args := []any{}
	if employeeID = strings.TrimSpace(employeeID); employeeID != "" {
		query = `SELECT t.id, t.name, t.status, t.date_created FROM tasks t
			JOIN task_employees te ON te.task_id = t.id
			WHERE te.employee_id = ?
			ORDER BY t.date_created DESC, t.created_at DESC`
		args = append(args, employeeID)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	tasks := []model.Task{}
	for rows.Next() {
		var task model.Task
		if err := rows.Scan(&task.ID, &task.Name, &task.Status, &task.DateCreated); err != nil {
			_ = rows.Close()
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range tasks {
		ids, err := s.taskEmployeeIDs(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].EmployeeIDs = ids
	}
	return tasks, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	before, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if err := s.addHistory(ctx, id, "deleted", formatTaskDetails("deleted", before)); err != nil {
		return err
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, taskID string) ([]HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, task_id, event_type, details, created_at FROM task_history WHERE task_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []HistoryEntry{}
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.EventType, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (s *Store) taskEmployeeIDs(ctx context.Context, taskID string) (model.IDList, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT employee_id FROM task_employees WHERE task_id = ? ORDER BY position`, taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := model.IDList{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) addHistory(ctx context.Context, taskID, eventType, details string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO task_history (task_id, event_type, details) VALUES (?, ?, ?)`,
		taskID, eventType, details,
	)
	if err != nil {
		return fmt.Errorf("add %s history: %w", eventType, err)
	}
	return nil
}

func normalizeStatus(status string) string {
	value := strings.TrimSpace(status)
	if value == "" {
		return model.StatusNotStarted
	}
	for _, known := range model.Statuses {
		if strings.EqualFold(known, value) {
			return known
		}
	}
	return value
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func formatTaskDetails(verb string, task model.Task) string {
	employees := "none"
	if len(task.EmployeeIDs) > 0 {
		employees = strings.Join(task.EmployeeIDs, ",")
	}
	return fmt.Sprintf("%s: name='%s' status=%s created=%s employees=%s", verb, task.Name, task.Status, task.DateCreated, employees)
}
