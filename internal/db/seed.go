package db

import (
	"context"
	"fmt"

	"github.com/Joseda-hg/lazyteam/internal/model"
)

// DemoPassword is the password every seeded employee logs in with.
const DemoPassword = "password"

var demoEmployees = []EmployeeInput{
	{ID: "1001", FirstName: "Ada", LastName: "Lovelace", DOB: "1815-12-10", Role: "Engineering Manager"},
	{ID: "1002", FirstName: "Grace", LastName: "Hopper", DOB: "1906-12-09", Role: "Engineer"},
	{ID: "1003", FirstName: "Alan", LastName: "Turing", DOB: "1912-06-23", Role: "Engineer"},
	{ID: "1004", FirstName: "Katherine", LastName: "Johnson", DOB: "1918-08-26", Role: "Analyst"},
}

var demoTasks = []TaskInput{
	{Name: "Quarterly report", Status: model.StatusCompleted, DateCreated: "2024-01-22", EmployeeIDs: []string{"1001", "1002", "1003"}},
	{Name: "Migrate payroll export", Status: model.StatusInProgress, DateCreated: "2024-02-23", EmployeeIDs: []string{"1001", "1004"}},
	{Name: "Onboarding checklist", Status: model.StatusInReview, DateCreated: "2024-03-11", EmployeeIDs: []string{"1002"}},
	{Name: "Office move", Status: model.StatusNotStarted, DateCreated: "2024-04-01", EmployeeIDs: []string{"1001", "1002", "1003", "1004"}},
}

// Seed fills an empty database with demo employees and tasks. It does
// nothing when any employee already exists.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return fmt.Errorf("count employees: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, employee := range demoEmployees {
		employee.Password = DemoPassword
		if _, err := s.CreateEmployee(ctx, employee); err != nil {
			return err
		}
	}
	for _, task := range demoTasks {
		if _, err := s.CreateTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}
