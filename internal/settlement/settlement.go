// Package settlement moves tier payments from a payer to the admin account.
package settlement

import (
	"fmt"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
)

// Check verifies that payer can cover amount. Only positive amounts can be uncovered.
func Check(l ledger.Ledger, payer domain.Account, amount domain.Amount) error {
	if balance := l.Balance(payer); balance < amount {
		return fmt.Errorf("%w: balance %d, required %d", domain.ErrInsufficientBalance, balance, amount)
	}
	return nil
}

// Settle debits payer and credits admin by exactly amount and records the transfer.
// The caller must run Check first; Settle never fails.
func Settle(l ledger.Ledger, payer, admin domain.Account, amount domain.Amount) ledger.Transfer {
	l.Debit(payer, amount)
	l.Credit(admin, amount)

	t := ledger.Transfer{Amount: amount, From: payer, To: admin}
	l.RecordTransfer(t)
	return t
}
