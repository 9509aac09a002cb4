// Package meter accounts for language-model usage. Each call records token
// counts to a persistent ledger and Prometheus counters, and a credit
// precondition can refuse LLM-backed work before it starts. Callers surface
// that refusal as "recharge needed", never as a data error.
package meter

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrInsufficientCredit reports that the credit balance blocks further
// model calls. Distinct from any parsing or lookup failure.
var ErrInsufficientCredit = errors.New("insufficient credit")

// Ledger is the persistent side of metering, implemented by the store.
type Ledger interface {
	AddUsage(tokensIn, tokensOut int64, cost float64) error
	Balance() (float64, error)
	Debit(amount float64) error
}

// Pricing converts token counts to cost. Rates are per million tokens.
type Pricing struct {
	InPerMillion  float64
	OutPerMillion float64
}

// Cost computes the charge for one call.
func (p Pricing) Cost(tokensIn, tokensOut int64) float64 {
	return float64(tokensIn)*p.InPerMillion/1e6 + float64(tokensOut)*p.OutPerMillion/1e6
}

// Meter implements llm.UsageMeter over a ledger, with Prometheus counters
// for live observation. A nil ledger disables persistence and the credit
// gate, leaving only the counters.
type Meter struct {
	ledger  Ledger
	pricing Pricing
	enforce bool

	calls     prometheus.Counter
	tokensIn  prometheus.Counter
	tokensOut prometheus.Counter
}

// New builds a meter and registers its counters on reg. enforce controls
// whether Allow checks the ledger balance.
func New(ledger Ledger, pricing Pricing, enforce bool, reg prometheus.Registerer) *Meter {
	m := &Meter{
		ledger:  ledger,
		pricing: pricing,
		enforce: enforce,
		calls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demandas_llm_calls_total",
			Help: "Completed language model calls.",
		}),
		tokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demandas_llm_tokens_in_total",
			Help: "Input tokens reported by the provider.",
		}),
		tokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demandas_llm_tokens_out_total",
			Help: "Output tokens reported by the provider.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.tokensIn, m.tokensOut)
	}
	return m
}

// Allow refuses the next model call when credit enforcement is on and the
// balance is exhausted.
func (m *Meter) Allow() error {
	if !m.enforce || m.ledger == nil {
		return nil
	}
	balance, err := m.ledger.Balance()
	if err != nil {
		return err
	}
	if balance <= 0 {
		return ErrInsufficientCredit
	}
	return nil
}

// Record accounts for one completed call. Ledger failures are swallowed:
// usage accounting must never fail a call that already succeeded.
func (m *Meter) Record(tokensIn, tokensOut int64) {
	m.calls.Inc()
	m.tokensIn.Add(float64(tokensIn))
	m.tokensOut.Add(float64(tokensOut))

	if m.ledger == nil {
		return
	}
	cost := m.pricing.Cost(tokensIn, tokensOut)
	_ = m.ledger.AddUsage(tokensIn, tokensOut, cost)
	if m.enforce {
		_ = m.ledger.Debit(cost)
	}
}
