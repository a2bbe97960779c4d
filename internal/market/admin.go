package market

import (
	"context"
	"errors"
	"strconv"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/payment"
	"github.com/feral-file/ff-ticket-market/internal/settlement"
)

// Operator returns the admin identity of the market
func (m *Market) Operator() domain.Address {
	return m.config.Operator
}

func (m *Market) requireOperator(caller domain.Address) error {
	if !caller.Equal(m.config.Operator) {
		return domain.ErrUnauthorized
	}
	return nil
}

// SetPlatformFeeRate changes the platform fee applied to future sales
func (m *Market) SetPlatformFeeRate(ctx context.Context, caller domain.Address, bp uint16) error {
	if err := m.requireOperator(caller); err != nil {
		return err
	}
	if bp > domain.MaxPlatformFeeBp {
		return domain.ErrFeeTooHigh
	}

	return m.run(ctx, "set_platform_fee_rate", func(op *operation) error {
		settings, err := op.tx.GetSettings(op.ctx)
		if err != nil {
			return err
		}
		old := settings.PlatformFeeBp
		settings.PlatformFeeBp = bp
		if err := op.tx.SaveSettings(op.ctx, settings); err != nil {
			return err
		}

		op.emit(domain.Event{
			Type:     domain.EventTypePlatformFeeUpdated,
			Actor:    caller,
			OldValue: strconv.FormatUint(uint64(old), 10),
			NewValue: strconv.FormatUint(uint64(bp), 10),
		})
		return nil
	})
}

// SetPlatformContract points sale notifications at a platform contract; the zero address disables them
func (m *Market) SetPlatformContract(ctx context.Context, caller domain.Address, contract domain.Address) error {
	if err := m.requireOperator(caller); err != nil {
		return err
	}
	normalized, err := domain.ParseAddress(contract.String())
	if err != nil {
		return err
	}

	return m.run(ctx, "set_platform_contract", func(op *operation) error {
		settings, err := op.tx.GetSettings(op.ctx)
		if err != nil {
			return err
		}
		old := settings.PlatformContract
		settings.PlatformContract = normalized
		if err := op.tx.SaveSettings(op.ctx, settings); err != nil {
			return err
		}

		op.emit(domain.Event{
			Type:     domain.EventTypePlatformContractUpdated,
			Actor:    caller,
			OldValue: old.String(),
			NewValue: normalized.String(),
		})
		return nil
	})
}

// WithdrawFees pays the accumulated platform fees to the operator and returns the amount
func (m *Market) WithdrawFees(ctx context.Context, caller domain.Address) (uint64, error) {
	if err := m.requireOperator(caller); err != nil {
		return 0, err
	}

	var amount uint64
	err := m.run(ctx, "withdraw_fees", func(op *operation) error {
		stats, err := op.tx.GetStats(op.ctx)
		if err != nil {
			return err
		}
		if stats.AccumulatedPlatformFees == 0 {
			return domain.ErrNoFeesToWithdraw
		}
		amount = stats.AccumulatedPlatformFees

		plan := settlement.NewPlan().Pay(m.config.Operator, amount)
		return m.execute(op, plan, func() error {
			stats.AccumulatedPlatformFees = 0
			if err := op.tx.SaveStats(op.ctx, stats); err != nil {
				return err
			}

			op.emit(domain.Event{
				Type:   domain.EventTypeFeesWithdrawn,
				Actor:  caller,
				Amount: amount,
			})
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// Deposit credits external funds to an account of the payment backend.
// It runs under the operation lock so concurrent rollbacks cannot discard it.
func (m *Market) Deposit(ctx context.Context, caller domain.Address, to domain.Address, amount uint64) error {
	if err := m.requireOperator(caller); err != nil {
		return err
	}
	if _, ok := m.payer.(payment.Depositor); !ok {
		return errors.New("payment backend does not accept deposits")
	}

	return m.run(ctx, "deposit", func(op *operation) error {
		return m.payerFor(op).(payment.Depositor).Credit(op.ctx, to, amount)
	})
}
