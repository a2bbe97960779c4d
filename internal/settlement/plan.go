package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/payment"
)

// ErrPlanCommitted is returned when a plan is committed twice
var ErrPlanCommitted = errors.New("settlement plan already committed")

// StepKind is the kind of an external interaction
type StepKind string

const (
	StepCollect  StepKind = "collect"
	StepTransfer StepKind = "transfer"
	StepPay      StepKind = "pay"
)

// Step is one external interaction of a settlement
type Step struct {
	Kind   StepKind
	From   domain.Address
	To     domain.Address
	Amount uint64
	Asset  domain.AssetRef
}

// Plan is the ordered list of interactions of one operation. Interactions
// cannot run until the plan is committed, and committing applies the
// operation's state changes first.
type Plan struct {
	steps     []Step
	committed bool
}

// NewPlan creates an empty plan
func NewPlan() *Plan {
	return &Plan{}
}

// Collect takes amount from an account into escrow
func (p *Plan) Collect(from domain.Address, amount uint64) *Plan {
	if amount > 0 {
		p.steps = append(p.steps, Step{Kind: StepCollect, From: from, Amount: amount})
	}
	return p
}

// TransferAsset moves the token between accounts
func (p *Plan) TransferAsset(ref domain.AssetRef, from, to domain.Address) *Plan {
	p.steps = append(p.steps, Step{Kind: StepTransfer, Asset: ref, From: from, To: to})
	return p
}

// Pay releases amount from escrow to an account
func (p *Plan) Pay(to domain.Address, amount uint64) *Plan {
	if amount > 0 {
		p.steps = append(p.steps, Step{Kind: StepPay, To: to, Amount: amount})
	}
	return p
}

// Settle disburses a sale: royalty first, then the seller proceeds. The
// platform fee stays in escrow and accrues to the withdrawable fee pool.
func (p *Plan) Settle(b Breakdown, seller, royaltyRecipient domain.Address) *Plan {
	return p.Pay(royaltyRecipient, b.RoyaltyFee).Pay(seller, b.SellerProceeds)
}

// Steps returns the planned interactions in execution order
func (p *Plan) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Commit applies the state effects and, when they succeed, seals the plan
// for execution
func (p *Plan) Commit(effects func() error) (*Committed, error) {
	if p.committed {
		return nil, ErrPlanCommitted
	}
	if effects != nil {
		if err := effects(); err != nil {
			return nil, err
		}
	}
	p.committed = true
	return &Committed{steps: p.Steps()}, nil
}

// Committed is a plan whose state effects have been applied
type Committed struct {
	steps []Step
}

// Execute runs the interactions in order and stops at the first failure
func (c *Committed) Execute(ctx context.Context, gw asset.Gateway, payer payment.Payer) error {
	for _, step := range c.steps {
		switch step.Kind {
		case StepCollect:
			if err := payer.Collect(ctx, step.From, step.Amount); err != nil {
				return fmt.Errorf("collect %d from %s: %w", step.Amount, step.From, asPaymentError(err))
			}
		case StepTransfer:
			if err := gw.Transfer(ctx, step.Asset, step.From, step.To); err != nil {
				return fmt.Errorf("transfer %s to %s: %w", step.Asset, step.To, asTransferError(err))
			}
		case StepPay:
			if err := payer.Pay(ctx, step.To, step.Amount); err != nil {
				return fmt.Errorf("pay %d to %s: %w", step.Amount, step.To, asPaymentError(err))
			}
		}
	}
	return nil
}

func asPaymentError(err error) error {
	if domain.KindOf(err) == domain.KindInternal {
		return fmt.Errorf("%w: %w", domain.ErrPaymentFailed, err)
	}
	return err
}

func asTransferError(err error) error {
	if domain.KindOf(err) == domain.KindInternal {
		return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}
	return err
}
