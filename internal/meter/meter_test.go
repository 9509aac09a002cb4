package meter

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeLedger struct {
	balance float64
	usage   []float64
	debits  []float64
	err     error
}

func (l *fakeLedger) AddUsage(_, _ int64, cost float64) error {
	l.usage = append(l.usage, cost)
	return l.err
}

func (l *fakeLedger) Balance() (float64, error) { return l.balance, l.err }

func (l *fakeLedger) Debit(amount float64) error {
	l.debits = append(l.debits, amount)
	return l.err
}

func TestPricingCost(t *testing.T) {
	p := Pricing{InPerMillion: 3, OutPerMillion: 15}
	got := p.Cost(1_000_000, 200_000)
	if math.Abs(got-6.0) > 1e-9 {
		t.Fatalf("cost=%f want 6.0", got)
	}
}

func TestAllowEnforced(t *testing.T) {
	ledger := &fakeLedger{balance: 0}
	m := New(ledger, Pricing{}, true, prometheus.NewRegistry())

	if err := m.Allow(); !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("err=%v want ErrInsufficientCredit", err)
	}

	ledger.balance = 1.5
	if err := m.Allow(); err != nil {
		t.Fatalf("positive balance refused: %v", err)
	}
}

func TestAllowUnenforced(t *testing.T) {
	m := New(&fakeLedger{balance: 0}, Pricing{}, false, prometheus.NewRegistry())
	if err := m.Allow(); err != nil {
		t.Fatalf("unenforced meter refused: %v", err)
	}
}

func TestRecordPersistsUsageAndDebit(t *testing.T) {
	ledger := &fakeLedger{balance: 10}
	m := New(ledger, Pricing{InPerMillion: 3, OutPerMillion: 15}, true, prometheus.NewRegistry())

	m.Record(1_000_000, 1_000_000)

	if len(ledger.usage) != 1 || math.Abs(ledger.usage[0]-18.0) > 1e-9 {
		t.Fatalf("usage=%v", ledger.usage)
	}
	if len(ledger.debits) != 1 || math.Abs(ledger.debits[0]-18.0) > 1e-9 {
		t.Fatalf("debits=%v", ledger.debits)
	}
}

func TestRecordSwallowsLedgerErrors(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("disk full")}
	m := New(ledger, Pricing{InPerMillion: 1, OutPerMillion: 1}, true, prometheus.NewRegistry())
	// Must not panic or surface the error.
	m.Record(10, 10)
}

func TestNilLedgerDisablesGate(t *testing.T) {
	m := New(nil, Pricing{}, true, nil)
	if err := m.Allow(); err != nil {
		t.Fatalf("nil ledger must not gate: %v", err)
	}
	m.Record(5, 5)
}
