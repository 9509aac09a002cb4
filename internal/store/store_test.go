package store

import (
	"math"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFormDataRoundTrip(t *testing.T) {
	s := newTestStore(t)

	data, err := s.LoadFormData("general")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty map, got %v", data)
	}

	saved := map[string]string{"NOMBRE": "Ana", "CEDULA": "0900000000"}
	if err := s.SaveFormData("general", saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadFormData("general")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got["NOMBRE"] != "Ana" || got["CEDULA"] != "0900000000" {
		t.Fatalf("got %v", got)
	}

	// Overwrite replaces wholesale.
	if err := s.SaveFormData("general", map[string]string{"NOMBRE": "Luz"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.LoadFormData("general")
	if len(got) != 1 || got["NOMBRE"] != "Luz" {
		t.Fatalf("after overwrite: %v", got)
	}
}

func TestPlaceholderMapIsSeparate(t *testing.T) {
	s := newTestStore(t)
	if err := s.SavePlaceholderMap("divorcio", map[string]string{"NOMBRE": "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	form, _ := s.LoadFormData("divorcio")
	if len(form) != 0 {
		t.Fatalf("placeholder map leaked into form data: %v", form)
	}
	ph, err := s.LoadPlaceholderMap("divorcio")
	if err != nil || ph["NOMBRE"] != "x" {
		t.Fatalf("ph=%v err=%v", ph, err)
	}
}

func TestCaseCounts(t *testing.T) {
	s := newTestStore(t)
	for _, tipo := range []string{"divorcio", "divorcio", "alimentos"} {
		if err := s.RegisterCase(tipo, "doc", "cliente"); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	counts, err := s.CaseCounts()
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["divorcio"] != 2 || counts["alimentos"] != 1 {
		t.Fatalf("counts=%v", counts)
	}
}

func TestCreditLedger(t *testing.T) {
	s := newTestStore(t)

	balance, err := s.Balance()
	if err != nil {
		t.Fatalf("initial balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance=%f want 0", balance)
	}

	if err := s.AddCredit(10); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Debit(2.5); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := s.AddUsage(100, 50, 2.5); err != nil {
		t.Fatalf("usage: %v", err)
	}

	balance, err = s.Balance()
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if math.Abs(balance-7.5) > 1e-9 {
		t.Fatalf("balance=%f want 7.5", balance)
	}
}
