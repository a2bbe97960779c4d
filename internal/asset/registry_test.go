package asset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/mocks"
)

var (
	marketAcc = domain.MustAddress("0x00000000000000000000000000000000000000e1")
	alice     = domain.MustAddress("0x00000000000000000000000000000000000000a1")
	bob       = domain.MustAddress("0x00000000000000000000000000000000000000b1")
	contract  = domain.MustAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
)

func ticket(t *testing.T, tokenID string) domain.AssetRef {
	ref, err := domain.NewAssetRef(contract.String(), tokenID)
	require.NoError(t, err)
	return ref
}

func TestRegistry_Mint(t *testing.T) {
	ctx := context.Background()
	r := asset.NewRegistry(marketAcc)
	ref := ticket(t, "1")

	owner, err := r.OwnerOf(ctx, ref)
	require.NoError(t, err)
	assert.True(t, owner.IsZero())

	assert.ErrorIs(t, r.Mint(ref, domain.ZeroAddress), domain.ErrInvalidRecipient)
	require.NoError(t, r.Mint(ref, alice))
	assert.Error(t, r.Mint(ref, bob))

	owner, err = r.OwnerOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
}

func TestRegistry_Transfer(t *testing.T) {
	ctx := context.Background()
	ref := ticket(t, "1")

	tests := []struct {
		name        string
		prepare     func(r *asset.Registry)
		from        domain.Address
		to          domain.Address
		expectedErr error
	}{
		{
			name:        "market not approved",
			prepare:     func(r *asset.Registry) {},
			from:        alice,
			to:          bob,
			expectedErr: domain.ErrTransferFailed,
		},
		{
			name:    "token approval",
			prepare: func(r *asset.Registry) { require.NoError(t, r.Approve(ref, alice, marketAcc)) },
			from:    alice,
			to:      bob,
		},
		{
			name:    "operator approval",
			prepare: func(r *asset.Registry) { r.SetApprovalForAll(contract, alice, marketAcc, true) },
			from:    alice,
			to:      bob,
		},
		{
			name: "revoked operator approval",
			prepare: func(r *asset.Registry) {
				r.SetApprovalForAll(contract, alice, marketAcc, true)
				r.SetApprovalForAll(contract, alice, marketAcc, false)
			},
			from:        alice,
			to:          bob,
			expectedErr: domain.ErrTransferFailed,
		},
		{
			name:        "wrong from",
			prepare:     func(r *asset.Registry) { r.SetApprovalForAll(contract, alice, marketAcc, true) },
			from:        bob,
			to:          alice,
			expectedErr: domain.ErrTransferFailed,
		},
		{
			name:        "zero receiver",
			prepare:     func(r *asset.Registry) { r.SetApprovalForAll(contract, alice, marketAcc, true) },
			from:        alice,
			to:          domain.ZeroAddress,
			expectedErr: domain.ErrTransferFailed,
		},
		{
			name: "rejecting receiver",
			prepare: func(r *asset.Registry) {
				r.SetApprovalForAll(contract, alice, marketAcc, true)
				r.RejectReceiver(bob)
			},
			from:        alice,
			to:          bob,
			expectedErr: domain.ErrTransferFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := asset.NewRegistry(marketAcc)
			require.NoError(t, r.Mint(ref, alice))
			tt.prepare(r)

			err := r.Transfer(ctx, ref, tt.from, tt.to)
			owner, ownerErr := r.OwnerOf(ctx, ref)
			require.NoError(t, ownerErr)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, alice, owner)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, owner)

			// The single-token approval does not survive the transfer
			approved, err := r.GetApproved(ctx, ref)
			require.NoError(t, err)
			assert.True(t, approved.IsZero())
		})
	}
}

func TestRegistry_ApproveRequiresOwner(t *testing.T) {
	r := asset.NewRegistry(marketAcc)
	ref := ticket(t, "1")
	require.NoError(t, r.Mint(ref, alice))

	assert.ErrorIs(t, r.Approve(ref, bob, marketAcc), domain.ErrNotOwner)
	assert.ErrorIs(t, r.Approve(ticket(t, "2"), alice, marketAcc), domain.ErrNotOwner)
}

func TestRegistry_MoveOwnership(t *testing.T) {
	ctx := context.Background()
	r := asset.NewRegistry(marketAcc)
	ref := ticket(t, "1")
	require.NoError(t, r.Mint(ref, alice))
	require.NoError(t, r.Approve(ref, alice, marketAcc))

	assert.ErrorIs(t, r.MoveOwnership(ref, bob, alice), domain.ErrNotOwner)
	require.NoError(t, r.MoveOwnership(ref, alice, bob))

	owner, err := r.OwnerOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	approved, err := r.GetApproved(ctx, ref)
	require.NoError(t, err)
	assert.True(t, approved.IsZero())
}

func TestRegistry_Savepoint(t *testing.T) {
	ctx := context.Background()
	r := asset.NewRegistry(marketAcc)
	ref := ticket(t, "1")
	require.NoError(t, r.Mint(ref, alice))
	r.SetApprovalForAll(contract, alice, marketAcc, true)

	restore := r.Savepoint()
	require.NoError(t, r.Transfer(ctx, ref, alice, bob))
	r.SetApprovalForAll(contract, alice, marketAcc, false)
	require.NoError(t, r.Mint(ticket(t, "2"), bob))

	restore()

	owner, err := r.OwnerOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	ok, err := r.IsApprovedForAll(ctx, contract, alice, marketAcc)
	require.NoError(t, err)
	assert.True(t, ok)

	owner, err = r.OwnerOf(ctx, ticket(t, "2"))
	require.NoError(t, err)
	assert.True(t, owner.IsZero())
}

func TestAuthorized(t *testing.T) {
	ctx := context.Background()
	ref := ticket(t, "1")

	tests := []struct {
		name     string
		setup    func(gw *mocks.MockAssetGateway)
		expected bool
		wantErr  bool
	}{
		{
			name: "operator approval",
			setup: func(gw *mocks.MockAssetGateway) {
				gw.EXPECT().IsApprovedForAll(gomock.Any(), contract, alice, marketAcc).Return(true, nil)
			},
			expected: true,
		},
		{
			name: "token approval",
			setup: func(gw *mocks.MockAssetGateway) {
				gw.EXPECT().IsApprovedForAll(gomock.Any(), contract, alice, marketAcc).Return(false, nil)
				gw.EXPECT().GetApproved(gomock.Any(), ref).Return(marketAcc, nil)
			},
			expected: true,
		},
		{
			name: "approved for someone else",
			setup: func(gw *mocks.MockAssetGateway) {
				gw.EXPECT().IsApprovedForAll(gomock.Any(), contract, alice, marketAcc).Return(false, nil)
				gw.EXPECT().GetApproved(gomock.Any(), ref).Return(bob, nil)
			},
			expected: false,
		},
		{
			name: "no approval",
			setup: func(gw *mocks.MockAssetGateway) {
				gw.EXPECT().IsApprovedForAll(gomock.Any(), contract, alice, marketAcc).Return(false, nil)
				gw.EXPECT().GetApproved(gomock.Any(), ref).Return(domain.ZeroAddress, nil)
			},
			expected: false,
		},
		{
			name: "rpc failure",
			setup: func(gw *mocks.MockAssetGateway) {
				gw.EXPECT().IsApprovedForAll(gomock.Any(), contract, alice, marketAcc).Return(false, errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gw := mocks.NewMockAssetGateway(ctrl)
			tt.setup(gw)

			ok, err := asset.Authorized(ctx, gw, ref, alice, marketAcc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}
