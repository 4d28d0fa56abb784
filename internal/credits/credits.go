// Package credits implements the usage ledger. Every completed analysis
// costs one credit; the balance is the sum of signed ledger entries.
package credits

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/internal/store"
)

// ErrInsufficient is returned when an analysis is requested with an empty
// balance.
var ErrInsufficient = eris.New("credits: insufficient balance")

// AnalysisCost is the credit price of one completed analysis.
const AnalysisCost = 1

// Ledger manages credit grants and charges over the store. The mutex
// serializes balance-check-then-insert sequences so concurrent analyses
// cannot overdraw.
type Ledger struct {
	store store.Store
	mu    sync.Mutex
}

// NewLedger creates a Ledger. If the ledger is empty and initialGrant is
// positive, the grant is recorded so first-run users can analyze immediately.
func NewLedger(ctx context.Context, s store.Store, initialGrant int) (*Ledger, error) {
	l := &Ledger{store: s}

	balance, err := s.CreditBalance(ctx)
	if err != nil {
		return nil, err
	}
	if balance == 0 && initialGrant > 0 {
		entries, err := s.ListAnalyses(ctx, store.AnalysisFilter{Limit: 1})
		if err != nil {
			return nil, err
		}
		// A zero balance with history means the user spent their grant,
		// not that this is a fresh install.
		if len(entries) == 0 {
			if err := l.Grant(ctx, initialGrant, "initial grant"); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

// Balance returns the current credit balance.
func (l *Ledger) Balance(ctx context.Context) (int, error) {
	return l.store.CreditBalance(ctx)
}

// Grant adds n credits to the ledger.
func (l *Ledger) Grant(ctx context.Context, n int, reason string) error {
	if n <= 0 {
		return eris.Errorf("credits: grant must be positive, got %d", n)
	}
	if err := l.store.InsertCredit(ctx, &model.CreditEntry{Delta: n, Reason: reason}); err != nil {
		return err
	}
	zap.L().Info("credits: granted", zap.Int("amount", n), zap.String("reason", reason))
	return nil
}

// Reserve checks that at least one analysis can be paid for. Called before
// spending tokens on the API. A passing reserve is only a hint: the
// balance is re-verified when the charge lands.
func (l *Ledger) Reserve(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyBalance(ctx)
}

// Charge records the cost of a completed analysis. The balance is checked
// again under the lock: several analyses may have passed Reserve on the
// same last credit, and only one of them gets it.
func (l *Ledger) Charge(ctx context.Context, analysisID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.verifyBalance(ctx); err != nil {
		return err
	}
	if err := l.store.InsertCredit(ctx, &model.CreditEntry{
		Delta:      -AnalysisCost,
		Reason:     "analysis",
		AnalysisID: analysisID,
	}); err != nil {
		return err
	}
	zap.L().Debug("credits: charged", zap.String("analysis_id", analysisID))
	return nil
}

func (l *Ledger) verifyBalance(ctx context.Context) error {
	balance, err := l.store.CreditBalance(ctx)
	if err != nil {
		return err
	}
	if balance < AnalysisCost {
		return ErrInsufficient
	}
	return nil
}
