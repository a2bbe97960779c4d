package asset

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-market/internal/adapter"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/logger"
)

const erc721ABIJSON = `[
{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"getApproved","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"safeTransferFrom","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

// ERC721Config holds the chain parameters of the ERC-721 gateway
type ERC721Config struct {
	ChainID *big.Int
	// ReceiptTimeout bounds the wait for a transfer to be mined
	ReceiptTimeout time.Duration
	// PollInterval is the initial delay between receipt lookups
	PollInterval time.Duration
}

// ERC721Gateway reads token state with eth_call and sends transfers signed by
// the market operator key
type ERC721Gateway struct {
	client adapter.EthClient
	key    *ecdsa.PrivateKey
	from   common.Address
	abi    abi.ABI
	config ERC721Config
}

// NewERC721Gateway creates a gateway that signs transfers with key
func NewERC721Gateway(client adapter.EthClient, key *ecdsa.PrivateKey, cfg ERC721Config) (*ERC721Gateway, error) {
	if cfg.ChainID == nil {
		return nil, errors.New("chain id is required")
	}
	if cfg.ReceiptTimeout == 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}

	parsed, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return &ERC721Gateway{
		client: client,
		key:    key,
		from:   crypto.PubkeyToAddress(key.PublicKey),
		abi:    parsed,
		config: cfg,
	}, nil
}

// Market returns the address transfers are sent from
func (g *ERC721Gateway) Market() domain.Address {
	return domain.Address(g.from.Hex())
}

func (g *ERC721Gateway) call(ctx context.Context, contract domain.Address, method string, out interface{}, args ...interface{}) error {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack data: %w", err)
	}

	to := contract.Common()
	result, err := g.client.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	if err := g.abi.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

func (g *ERC721Gateway) OwnerOf(ctx context.Context, asset domain.AssetRef) (domain.Address, error) {
	tokenID, err := asset.TokenNumber()
	if err != nil {
		return "", err
	}

	var owner common.Address
	if err := g.call(ctx, asset.Contract, "ownerOf", &owner, tokenID); err != nil {
		return "", err
	}
	return domain.Address(owner.Hex()), nil
}

func (g *ERC721Gateway) GetApproved(ctx context.Context, asset domain.AssetRef) (domain.Address, error) {
	tokenID, err := asset.TokenNumber()
	if err != nil {
		return "", err
	}

	var approved common.Address
	if err := g.call(ctx, asset.Contract, "getApproved", &approved, tokenID); err != nil {
		return "", err
	}
	return domain.Address(approved.Hex()), nil
}

func (g *ERC721Gateway) IsApprovedForAll(ctx context.Context, contract, owner, operator domain.Address) (bool, error) {
	var approved bool
	if err := g.call(ctx, contract, "isApprovedForAll", &approved, owner.Common(), operator.Common()); err != nil {
		return false, err
	}
	return approved, nil
}

// Transfer sends safeTransferFrom and waits for a successful receipt
func (g *ERC721Gateway) Transfer(ctx context.Context, asset domain.AssetRef, from, to domain.Address) error {
	tokenID, err := asset.TokenNumber()
	if err != nil {
		return err
	}

	data, err := g.abi.Pack("safeTransferFrom", from.Common(), to.Common(), tokenID)
	if err != nil {
		return fmt.Errorf("failed to pack data: %w", err)
	}

	contract := asset.Contract.Common()
	gas, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From: g.from,
		To:   &contract,
		Data: data,
	})
	if err != nil {
		// A revert surfaces here before anything is broadcast
		return fmt.Errorf("%w: estimate gas: %v", domain.ErrTransferFailed, err)
	}

	nonce, err := g.client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &contract,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(g.config.ChainID), g.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("%w: send transaction: %v", domain.ErrTransferFailed, err)
	}

	logger.InfoCtx(ctx, "Asset transfer sent",
		zap.String("asset", asset.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("txHash", signed.Hash().Hex()),
	)

	return g.waitMined(ctx, signed.Hash())
}

// waitMined polls for the receipt until it is found or the timeout elapses
func (g *ERC721Gateway) waitMined(ctx context.Context, hash common.Hash) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.config.PollInterval
	b.MaxInterval = 15 * g.config.PollInterval
	b.MaxElapsedTime = g.config.ReceiptTimeout
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2

	operation := func() error {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return fmt.Errorf("transaction %s not mined yet", hash.Hex())
			}
			logger.WarnCtx(ctx, "Failed to fetch receipt, retrying", zap.Error(err))
			return err
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return backoff.Permanent(fmt.Errorf("%w: transaction %s reverted", domain.ErrTransferFailed, hash.Hex()))
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, domain.ErrTransferFailed) {
			return err
		}
		return fmt.Errorf("%w: waiting for receipt: %v", domain.ErrTransferFailed, err)
	}
	return nil
}
