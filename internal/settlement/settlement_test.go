package settlement_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/mocks"
	"github.com/feral-file/ff-tier-pass/internal/settlement"
)

const (
	payer domain.Account = "0xpayer"
	admin domain.Account = "0xadmin"
)

func TestCheck(t *testing.T) {
	l := ledger.NewMemory(map[domain.Account]domain.Amount{payer: 1000})

	tests := []struct {
		name    string
		amount  domain.Amount
		wantErr error
	}{
		{name: "exact balance", amount: 1000},
		{name: "below balance", amount: 1},
		{name: "above balance", amount: 1001, wantErr: domain.ErrInsufficientBalance},
		{name: "zero amount", amount: 0},
		{name: "negative amount never fails", amount: -500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := settlement.Check(l, payer, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSettle(t *testing.T) {
	l := ledger.NewMemory(map[domain.Account]domain.Amount{payer: 1000})

	tr := settlement.Settle(l, payer, admin, 300)

	assert.Equal(t, ledger.Transfer{Amount: 300, From: payer, To: admin}, tr)
	assert.Equal(t, domain.Amount(700), l.Balance(payer))
	assert.Equal(t, domain.Amount(300), l.Balance(admin))
	assert.Equal(t, []ledger.Transfer{tr}, l.Transfers())
}

func TestSettle_SignedDelta(t *testing.T) {
	l := ledger.NewMemory(map[domain.Account]domain.Amount{payer: 100, admin: 500})

	settlement.Settle(l, payer, admin, -200)

	assert.Equal(t, domain.Amount(300), l.Balance(payer))
	assert.Equal(t, domain.Amount(300), l.Balance(admin))
	assert.Equal(t, domain.Amount(-200), l.Transfers()[0].Amount)
}

func TestSettleLedgerCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)

	gomock.InOrder(
		l.EXPECT().Debit(payer, domain.Amount(250)),
		l.EXPECT().Credit(admin, domain.Amount(250)),
		l.EXPECT().RecordTransfer(ledger.Transfer{Amount: 250, From: payer, To: admin}),
	)

	transfer := settlement.Settle(l, payer, admin, 250)
	assert.Equal(t, ledger.Transfer{Amount: 250, From: payer, To: admin}, transfer)
}

func TestCheckReadsPayerBalanceOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().Balance(payer).Return(domain.Amount(10))

	assert.ErrorIs(t, settlement.Check(l, payer, 11), domain.ErrInsufficientBalance)
}
