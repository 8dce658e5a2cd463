package tui

import (
	"strings"
)

type formField struct {
	Label  string
	Value  string
	Secret bool
}

const (
	fieldEmployeeID = iota
	fieldPassword
)

type loginForm struct {
	fields []formField
	index  int
}

func newLoginForm(employeeID string) *loginForm {
	fields := []formField{
		{Label: "Employee ID"},
		{Label: "Password", Secret: true},
	}
	fields[fieldEmployeeID].Value = employeeID
	form := &loginForm{fields: fields}
	if employeeID != "" {
		form.index = fieldPassword
	}
	return form
}

func (f *loginForm) credentials() (string, string) {
	return strings.TrimSpace(f.fields[fieldEmployeeID].Value), f.fields[fieldPassword].Value
}

func (f *loginForm) next() {
	if f.index < len(f.fields)-1 {
		f.index++
	}
}

func (f *loginForm) prev() {
	if f.index > 0 {
		f.index--
	}
}

func (f *loginForm) clearPassword() {
	f.fields[fieldPassword].Value = ""
}

func (f formField) display() string {
	if f.Secret {
		return strings.Repeat("*", len([]rune(f.Value)))
	}
	return f.Value
}
