package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	r := NewService().Status(context.Background())
	if !r.OK || r.Dependencies != nil {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestStatusReportsFailures(t *testing.T) {
	svc := NewService()
	svc.Register("postgres", func(ctx context.Context) error { return nil })
	svc.Register("redis", func(ctx context.Context) error { return errors.New("dial tcp: refused") })
	svc.Register("mongo", nil)

	r := svc.Status(context.Background())
	if r.OK {
		t.Fatalf("expected not ok")
	}
	if r.Dependencies["postgres"] != "up" || r.Dependencies["redis"] != "down" {
		t.Fatalf("unexpected dependencies: %v", r.Dependencies)
	}
	if _, ok := r.Dependencies["mongo"]; ok {
		t.Fatalf("nil check should not be registered")
	}
}
