package asset

import (
	"context"
	"fmt"
	"sync"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

type operatorKey struct {
	contract domain.Address
	owner    domain.Address
	operator domain.Address
}

type registryState struct {
	owners    map[string]domain.Address
	approvals map[string]domain.Address
	operators map[operatorKey]bool
}

func (s registryState) clone() registryState {
	c := registryState{
		owners:    make(map[string]domain.Address, len(s.owners)),
		approvals: make(map[string]domain.Address, len(s.approvals)),
		operators: make(map[operatorKey]bool, len(s.operators)),
	}
	for k, v := range s.owners {
		c.owners[k] = v
	}
	for k, v := range s.approvals {
		c.approvals[k] = v
	}
	for k, v := range s.operators {
		c.operators[k] = v
	}
	return c
}

// Registry is an in-memory ERC-721 ledger. Transfers follow the transferFrom
// guard: the market must be the owner, the token's approved address, or an
// operator of the owner.
type Registry struct {
	mu        sync.Mutex
	market    domain.Address
	state     registryState
	rejecting map[domain.Address]bool
}

// NewRegistry creates an empty registry whose transfers are sent by market
func NewRegistry(market domain.Address) *Registry {
	return &Registry{
		market: market,
		state: registryState{
			owners:    make(map[string]domain.Address),
			approvals: make(map[string]domain.Address),
			operators: make(map[operatorKey]bool),
		},
		rejecting: make(map[domain.Address]bool),
	}
}

// Mint assigns a fresh token to owner
func (r *Registry) Mint(asset domain.AssetRef, owner domain.Address) error {
	if !owner.Valid() {
		return domain.ErrInvalidRecipient
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.state.owners[asset.Key()]; ok {
		return fmt.Errorf("token %s already minted", asset)
	}
	r.state.owners[asset.Key()] = owner
	return nil
}

// Approve sets the single-token approval; only the owner may call it
func (r *Registry) Approve(asset domain.AssetRef, caller, approved domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.state.owners[asset.Key()]
	if !ok || !owner.Equal(caller) {
		return domain.ErrNotOwner
	}
	r.state.approvals[asset.Key()] = approved
	return nil
}

// SetApprovalForAll grants or revokes operator rights over all of owner's tokens in contract
func (r *Registry) SetApprovalForAll(contract, owner, operator domain.Address, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := operatorKey{contract: contract, owner: owner, operator: operator}
	if approved {
		r.state.operators[key] = true
		return
	}
	delete(r.state.operators, key)
}

// MoveOwnership transfers a token outside the market, as its owner would on-chain
func (r *Registry) MoveOwnership(asset domain.AssetRef, from, to domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.state.owners[asset.Key()]
	if !ok || !owner.Equal(from) {
		return domain.ErrNotOwner
	}
	r.state.owners[asset.Key()] = to
	delete(r.state.approvals, asset.Key())
	return nil
}

// RejectReceiver makes every transfer to addr fail, like a contract without onERC721Received
func (r *Registry) RejectReceiver(addr domain.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejecting[addr] = true
}

func (r *Registry) OwnerOf(ctx context.Context, asset domain.AssetRef) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.state.owners[asset.Key()]
	if !ok {
		return domain.ZeroAddress, nil
	}
	return owner, nil
}

func (r *Registry) GetApproved(ctx context.Context, asset domain.AssetRef) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	approved, ok := r.state.approvals[asset.Key()]
	if !ok {
		return domain.ZeroAddress, nil
	}
	return approved, nil
}

func (r *Registry) IsApprovedForAll(ctx context.Context, contract, owner, operator domain.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.operators[operatorKey{contract: contract, owner: owner, operator: operator}], nil
}

func (r *Registry) Transfer(ctx context.Context, asset domain.AssetRef, from, to domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := asset.Key()
	owner, ok := r.state.owners[key]
	if !ok || !owner.Equal(from) {
		return fmt.Errorf("%w: %s is not owned by %s", domain.ErrTransferFailed, asset, from)
	}

	allowed := r.market.Equal(owner) ||
		r.state.approvals[key].Equal(r.market) ||
		r.state.operators[operatorKey{contract: asset.Contract, owner: owner, operator: r.market}]
	if !allowed {
		return fmt.Errorf("%w: market is not approved for %s", domain.ErrTransferFailed, asset)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: invalid receiver %q", domain.ErrTransferFailed, to)
	}
	if r.rejecting[to] {
		return fmt.Errorf("%w: %s rejected %s", domain.ErrTransferFailed, to, asset)
	}

	r.state.owners[key] = to
	delete(r.state.approvals, key)
	return nil
}

// Savepoint captures ownership and approvals; the returned func restores them
func (r *Registry) Savepoint() func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.state = snapshot
	}
}
