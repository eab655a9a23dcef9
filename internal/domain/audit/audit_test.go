package audit

import (
	"strings"
	"testing"
)

func TestBuildBaseQuery(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{Action: "attendance.create", ActorUser: "u1"})
	if !strings.Contains(query, "action = $1") || !strings.Contains(query, "actor_user_id::text = $2") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 || args[0] != "attendance.create" || args[1] != "u1" {
		t.Fatalf("unexpected args: %v", args)
	}

	query, args = buildBaseQuery("SELECT 1", Filter{})
	if strings.Contains(query, "$") || len(args) != 0 {
		t.Fatalf("expected unfiltered query, got %s %v", query, args)
	}
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil for nil input, got %s (%v)", raw, err)
	}
	raw, err = marshalOptional(map[string]int{"count": 2})
	if err != nil || string(raw) != `{"count":2}` {
		t.Fatalf("unexpected json: %s (%v)", raw, err)
	}
}
