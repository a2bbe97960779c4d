package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-market/internal/adapter"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/logger"
	"github.com/feral-file/ff-ticket-market/internal/store"
)

// AuctionCloser ends an auction on behalf of a caller
//
//go:generate mockgen -source=auction_settlement.go -destination=../mocks/auction_closer.go -package=mocks -mock_names=AuctionCloser=MockAuctionCloser
type AuctionCloser interface {
	EndAuction(ctx context.Context, id uint64, caller domain.Address) (*domain.Sale, error)
}

// AuctionSettlementConfig holds configuration for the auction settlement sweeper
type AuctionSettlementConfig struct {
	Interval  time.Duration // Sleep between cycles
	BatchSize int           // Auctions settled per cycle
	Operator  domain.Address
}

type auctionSettlementSweeper struct {
	config    AuctionSettlementConfig
	store     store.Store
	closer    AuctionCloser
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewAuctionSettlementSweeper creates a sweeper that ends auctions once their end time has passed
func NewAuctionSettlementSweeper(config AuctionSettlementConfig, st store.Store, closer AuctionCloser, clock adapter.Clock) Sweeper {
	return &auctionSettlementSweeper{
		config:    config,
		store:     st,
		closer:    closer,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *auctionSettlementSweeper) Name() string {
	return "auction-settlement-sweeper"
}

// Start runs settlement cycles until the context is canceled or stop is requested
func (s *auctionSettlementSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting auction settlement sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Auction settlement sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Auction settlement sweeper stop requested")
			return nil
		default:
			settled, err := s.runSweepCycle(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}

			// A full batch means more auctions may be waiting
			if err == nil && settled >= s.config.BatchSize {
				continue
			}
			s.sleep(ctx, s.config.Interval)
		}
	}
}

// Stop signals the main loop and waits for it to exit
func (s *auctionSettlementSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping auction settlement sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Auction settlement sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Auction settlement sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle ends every expired auction in one batch and returns how many were examined
func (s *auctionSettlementSweeper) runSweepCycle(ctx context.Context) (int, error) {
	startTime := s.clock.Now()

	ids, err := s.store.ListExpiredAuctionIDs(ctx, startTime, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var settled, unsold, failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		sale, err := s.closer.EndAuction(ctx, id, s.config.Operator)
		switch {
		case err == nil && sale != nil:
			settled++
		case err == nil:
			unsold++
		case errors.Is(err, domain.ErrAlreadyEnded), errors.Is(err, domain.ErrNotActive), errors.Is(err, domain.ErrStillOngoing):
			// Ended by a participant since the batch was listed, or not yet expired by the market's clock
		case domain.KindOf(err) == domain.KindTransfer:
			failed++
			logger.WarnCtx(ctx, "Auction settlement transfer failed",
				zap.Uint64("auction_id", id),
				zap.Error(err),
			)
		default:
			failed++
			logger.ErrorCtx(ctx, fmt.Errorf("failed to end auction %d: %w", id, err))
		}
	}

	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("expired", len(ids)),
		zap.Int("settled", settled),
		zap.Int("unsold", unsold),
		zap.Int("failed", failed),
	)

	// Failed auctions stay listed as expired; back off instead of retrying them in a tight loop
	if failed > 0 {
		return 0, nil
	}
	return len(ids), nil
}

// sleep waits for the duration unless the context is canceled or stop is requested
func (s *auctionSettlementSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
