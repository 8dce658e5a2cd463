package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	StatusCompleted  = "Completed"
	StatusInReview   = "In Review"
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
)

var Statuses = []string{StatusNotStarted, StatusInProgress, StatusInReview, StatusCompleted}

type User struct {
	ID string `json:"id"`
}

type Credentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateCreated string `json:"dateCreated"`
	Status      string `json:"status"`
	EmployeeIDs IDList `json:"employeeIds"`
}

type Member struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	DOB       string `json:"dob"`
}

func (m Member) Initial() string {
	for _, r := range m.FirstName {
		return string(r)
	}
	return "?"
}

type Profile struct {
	Member
	Role string `json:"role"`
}

// IDList decodes employee id arrays leniently: ids may be strings or numbers,
// and anything that is not an array decodes to an empty list.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	*l = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}

	ids := make(IDList, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, s)
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil {
			if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
				ids = append(ids, n.String())
			}
		}
	}
	*l = ids
	return nil
}

func (l IDList) Equal(other IDList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
