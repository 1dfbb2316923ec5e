package service

import (
	"context"

	ruledomain "github.com/smallbiznis/affina/internal/commissionrule/domain"
)

// noopEvaluator is the placeholder Evaluator. Conditions are persisted and
// listed, but applying them to real transactions requires a grammar that is
// still undecided, so every evaluation is rejected rather than guessed.
type noopEvaluator struct{}

func NewNoopEvaluator() ruledomain.Evaluator {
	return &noopEvaluator{}
}

func (e *noopEvaluator) Evaluate(ctx context.Context, condition string, txn ruledomain.TransactionContext) (bool, error) {
	_ = ctx
	_ = condition
	_ = txn
	return false, ruledomain.ErrEvaluatorNotConfigured
}
