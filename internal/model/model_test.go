package model

import (
	"encoding/json"
	"testing"
)

func TestTaskDecodesEmployeeIDs(t *testing.T) {
	cases := []struct {
		name string
		body string
		want IDList
	}{
		{name: "numbers", body: `{"employeeIds":[1,2,3]}`, want: IDList{"1", "2", "3"}},
		{name: "strings", body: `{"employeeIds":["a7"," b8 "]}`, want: IDList{"a7", "b8"}},
		{name: "mixed with junk", body: `{"employeeIds":[4,null,{"x":1},"",true,"9"]}`, want: IDList{"4", "9"}},
		{name: "missing", body: `{}`, want: nil},
		{name: "not an array", body: `{"employeeIds":"1,2"}`, want: nil},
		{name: "null", body: `{"employeeIds":null}`, want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var task Task
			if err := json.Unmarshal([]byte(tc.body), &task); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !task.EmployeeIDs.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, task.EmployeeIDs)
			}
		})
	}
}

func TestMemberInitial(t *testing.T) {
	if got := (Member{FirstName: "Ada"}).Initial(); got != "A" {
		t.Fatalf("expected 'A', got %q", got)
	}
	if got := (Member{}).Initial(); got != "?" {
		t.Fatalf("expected '?', got %q", got)
	}
}
