package ledger

import "time"

// Observer receives ledger events for metrics.
type Observer interface {
	TransactionPosted(source string)
	MutationRejected(reason string)
	BalancingPlugApplied()
	LedgerRebuilt(elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) TransactionPosted(string)    {}
func (nopObserver) MutationRejected(string)     {}
func (nopObserver) BalancingPlugApplied()       {}
func (nopObserver) LedgerRebuilt(time.Duration) {}
