package sequence

import (
	"errors"
	"fmt"
	"testing"
)

type stubSource struct {
	last string
	ok   bool
	err  error
}

func (s *stubSource) MaxNumber(prefix string) (string, bool, error) {
	return s.last, s.ok, s.err
}

func TestNext_FirstOfDay(t *testing.T) {
	src := &stubSource{}
	no, err := Next(src, "LOT-", "20240101")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if no != "LOT-20240101-001" {
		t.Fatalf("no = %q, want LOT-20240101-001", no)
	}
}

func TestNext_Increments(t *testing.T) {
	src := &stubSource{last: "OUT-20240101-041", ok: true}
	no, err := Next(src, "OUT-", "20240101")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if no != "OUT-20240101-042" {
		t.Fatalf("no = %q, want OUT-20240101-042", no)
	}
}

func TestNext_PadsThreeDigits(t *testing.T) {
	src := &stubSource{last: "LOT-20240101-009", ok: true}
	no, err := Next(src, "LOT-", "20240101")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if no != "LOT-20240101-010" {
		t.Fatalf("no = %q, want LOT-20240101-010", no)
	}
}

func TestNext_CapAt999(t *testing.T) {
	src := &stubSource{last: "LOT-20240101-999", ok: true}
	_, err := Next(src, "LOT-", "20240101")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestNext_999thSucceeds(t *testing.T) {
	src := &stubSource{last: "LOT-20240101-998", ok: true}
	no, err := Next(src, "LOT-", "20240101")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if no != "LOT-20240101-999" {
		t.Fatalf("no = %q, want LOT-20240101-999", no)
	}
}

func TestNext_MalformedNumber(t *testing.T) {
	src := &stubSource{last: "LOT-20240101-abc", ok: true}
	if _, err := Next(src, "LOT-", "20240101"); err == nil {
		t.Fatal("expected error for malformed number")
	}
}

func TestNext_SourceError(t *testing.T) {
	src := &stubSource{err: errors.New("db gone")}
	if _, err := Next(src, "LOT-", "20240101"); err == nil {
		t.Fatal("expected source error to propagate")
	}
}

func TestWithRetry_SuccessFirstTry(t *testing.T) {
	calls := 0
	err := WithRetry(func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_NonUniqueErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	err := WithRetry(func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on non-unique errors)", calls)
	}
}

func TestWithRetry_RecoversAfterCollision(t *testing.T) {
	calls := 0
	err := WithRetry(func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("Error 1062: Duplicate entry 'LOT-20240101-002' for key 'idx_inbound_lot_no'")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_Exhaustion(t *testing.T) {
	calls := 0
	err := WithRetry(func() error {
		calls++
		return errors.New("UNIQUE constraint failed: order_inbound.lot_no")
	})
	if !errors.Is(err, ErrConflictExhausted) {
		t.Fatalf("err = %v, want ErrConflictExhausted", err)
	}
	if calls != 5 {
		t.Fatalf("calls = %d, want 5", calls)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Error 1062: Duplicate entry 'x' for key 'y'"), true},
		{errors.New("UNIQUE constraint failed: order_outbound.outbound_no"), true},
		{errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Errorf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
