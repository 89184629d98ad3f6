// Package ledger holds fungible balances of accounts and the log of settlement transfers.
package ledger

import (
	"maps"

	"github.com/feral-file/ff-tier-pass/internal/domain"
)

// Transfer is an immutable record of a settlement movement
type Transfer struct {
	Amount domain.Amount  `json:"amount"`
	From   domain.Account `json:"from"`
	To     domain.Account `json:"to"`
}

// Ledger defines the balance operations the lifecycle engine depends on
//
//go:generate mockgen -source=ledger.go -destination=../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger
type Ledger interface {
	// Balance returns the balance of an account, zero when unknown
	Balance(account domain.Account) domain.Amount
	// Debit decreases the balance of an account
	Debit(account domain.Account, amount domain.Amount)
	// Credit increases the balance of an account
	Credit(account domain.Account, amount domain.Amount)
	// RecordTransfer appends a record to the transfer log
	RecordTransfer(t Transfer)
	// Transfers returns a copy of the transfer log in insertion order
	Transfers() []Transfer
}

// Memory is an in-process Ledger
type Memory struct {
	balances  map[domain.Account]domain.Amount
	transfers []Transfer
}

// NewMemory creates a ledger with the given opening balances
func NewMemory(balances map[domain.Account]domain.Amount) *Memory {
	m := &Memory{balances: make(map[domain.Account]domain.Amount, len(balances))}
	maps.Copy(m.balances, balances)
	return m
}

// Balance returns the balance of an account
func (m *Memory) Balance(account domain.Account) domain.Amount {
	return m.balances[account]
}

// Debit decreases the balance of an account
func (m *Memory) Debit(account domain.Account, amount domain.Amount) {
	m.balances[account] -= amount
}

// Credit increases the balance of an account
func (m *Memory) Credit(account domain.Account, amount domain.Amount) {
	m.balances[account] += amount
}

// RecordTransfer appends a record to the transfer log
func (m *Memory) RecordTransfer(t Transfer) {
	m.transfers = append(m.transfers, t)
}

// Transfers returns a copy of the transfer log
func (m *Memory) Transfers() []Transfer {
	out := make([]Transfer, len(m.transfers))
	copy(out, m.transfers)
	return out
}

// Balances returns a copy of all balances
func (m *Memory) Balances() map[domain.Account]domain.Amount {
	out := make(map[domain.Account]domain.Amount, len(m.balances))
	maps.Copy(out, m.balances)
	return out
}

// Restore replaces balances and the transfer log
func (m *Memory) Restore(balances map[domain.Account]domain.Amount, transfers []Transfer) {
	m.balances = make(map[domain.Account]domain.Amount, len(balances))
	maps.Copy(m.balances, balances)
	m.transfers = make([]Transfer, len(transfers))
	copy(m.transfers, transfers)
}
