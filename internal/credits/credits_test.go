package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/internal/store"
)

func newTestLedger(t *testing.T, initialGrant int) (*Ledger, store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "credits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	l, err := NewLedger(context.Background(), s, initialGrant)
	require.NoError(t, err)
	return l, s
}

func TestInitialGrant(t *testing.T) {
	l, _ := newTestLedger(t, 10)

	balance, err := l.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestInitialGrantNotRepeated(t *testing.T) {
	l, s := newTestLedger(t, 10)
	ctx := context.Background()

	// A second ledger over the same store must not grant again.
	l2, err := NewLedger(ctx, s, 10)
	require.NoError(t, err)

	balance, err := l2.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
	_ = l
}

func TestNoGrantAfterSpendDown(t *testing.T) {
	l, s := newTestLedger(t, 1)
	ctx := context.Background()

	// Spend the whole grant, leaving analysis history behind.
	report, _ := json.Marshal(model.ResumeCritique{MatchScore: 50, Tips: "ok"})
	a := &model.Analysis{Kind: model.KindResume, Input: "r.txt", Provenance: "exact", Report: report}
	require.NoError(t, s.SaveAnalysis(ctx, a))
	require.NoError(t, l.Charge(ctx, a.ID))

	balance, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)

	// Re-opening the ledger must not restore free credits.
	l2, err := NewLedger(ctx, s, 10)
	require.NoError(t, err)
	balance, err = l2.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestReserve(t *testing.T) {
	l, _ := newTestLedger(t, 1)
	ctx := context.Background()

	require.NoError(t, l.Reserve(ctx))

	require.NoError(t, l.Charge(ctx, "a1"))
	err := l.Reserve(ctx)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInsufficient))
}

func TestGrantRejectsNonPositive(t *testing.T) {
	l, _ := newTestLedger(t, 0)

	assert.Error(t, l.Grant(context.Background(), 0, "nothing"))
	assert.Error(t, l.Grant(context.Background(), -5, "negative"))
}

func TestChargeRefusesAtZero(t *testing.T) {
	l, _ := newTestLedger(t, 1)
	ctx := context.Background()

	require.NoError(t, l.Charge(ctx, "a1"))

	err := l.Charge(ctx, "a2")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInsufficient))

	// The refused charge must not have landed in the ledger.
	balance, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestConcurrentChargesCannotOverdraw(t *testing.T) {
	l, _ := newTestLedger(t, 1)
	ctx := context.Background()

	// All workers can pass Reserve on the same last credit; only one
	// charge may land.
	var succeeded atomic.Int32
	var g errgroup.Group
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("a%d", i)
		g.Go(func() error {
			if err := l.Reserve(ctx); err != nil {
				if eris.Is(err, ErrInsufficient) {
					return nil
				}
				return err
			}
			switch err := l.Charge(ctx, id); {
			case err == nil:
				succeeded.Add(1)
				return nil
			case eris.Is(err, ErrInsufficient):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	balance, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestChargeReducesBalance(t *testing.T) {
	l, _ := newTestLedger(t, 3)
	ctx := context.Background()

	require.NoError(t, l.Charge(ctx, "a1"))
	require.NoError(t, l.Charge(ctx, "a2"))

	balance, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
}
