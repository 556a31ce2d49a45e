package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeUpstream struct {
	status int
	reason string
}

func (f fakeUpstream) Error() string   { return fmt.Sprintf("upstream %d", f.status) }
func (f fakeUpstream) StatusCode() int { return f.status }
func (f fakeUpstream) Reason() string  { return f.reason }

func TestDumpCapturesUpstreamResponse(t *testing.T) {
	err := Wrap(CodePaymentConfirmation, fakeUpstream{status: 402, reason: "card declined"}, "confirm kakao payment")

	d := Dump(err)
	if d.Code != CodePaymentConfirmation {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if d.UpstreamStatus != 402 || d.UpstreamReason != "card declined" {
		t.Fatalf("upstream details missing: %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
}

func TestDumpCapturesPostgresErrors(t *testing.T) {
	err := Wrap(CodeDependency, &pgconn.PgError{Code: "23505", TableName: "handoff_records", Message: "duplicate"}, "write pending")

	d := Dump(err)
	if d.PGCode != "23505" || d.PGTable != "handoff_records" {
		t.Fatalf("pg details missing: %+v", d)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
