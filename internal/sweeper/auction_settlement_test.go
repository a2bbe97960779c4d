package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/logger"
	"github.com/feral-file/ff-ticket-market/internal/mocks"
	"github.com/feral-file/ff-ticket-market/internal/sweeper"
)

var testOperator = domain.MustAddress("0x00000000000000000000000000000000000000f1")

// testSweeperMocks contains all the mocks needed for testing the sweeper
type testSweeperMocks struct {
	ctrl     *gomock.Controller
	store    *mocks.MockStore
	closer   *mocks.MockAuctionCloser
	clock    *mocks.MockClock
	sweeper  sweeper.Sweeper
	now      time.Time
	sleeping chan struct{}
	never    chan time.Time
}

// setupTestSweeper creates all the mocks and sweeper for testing
func setupTestSweeper(t *testing.T, batchSize int) *testSweeperMocks {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testSweeperMocks{
		ctrl:     ctrl,
		store:    mocks.NewMockStore(ctrl),
		closer:   mocks.NewMockAuctionCloser(ctrl),
		clock:    mocks.NewMockClock(ctrl),
		now:      time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		sleeping: make(chan struct{}),
		never:    make(chan time.Time),
	}

	tm.sweeper = sweeper.NewAuctionSettlementSweeper(sweeper.AuctionSettlementConfig{
		Interval:  time.Minute,
		BatchSize: batchSize,
		Operator:  testOperator,
	}, tm.store, tm.closer, tm.clock)

	return tm
}

// expectSleep makes the next sleep block forever and signals that the sweeper reached it
func (tm *testSweeperMocks) expectSleep() *gomock.Call {
	return tm.clock.EXPECT().After(time.Minute).DoAndReturn(func(time.Duration) <-chan time.Time {
		close(tm.sleeping)
		return tm.never
	})
}

// start runs the sweeper in the background and waits until it goes to sleep
func (tm *testSweeperMocks) start(t *testing.T, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- tm.sweeper.Start(ctx)
	}()

	select {
	case <-tm.sleeping:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not reach sleep")
	}
	return done
}

func (tm *testSweeperMocks) stop(t *testing.T, done <-chan error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, tm.sweeper.Stop(ctx))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("sweeper did not stop")
	}
}

func TestAuctionSettlementSweeper_Name(t *testing.T) {
	tm := setupTestSweeper(t, 10)
	defer tm.ctrl.Finish()

	assert.Equal(t, "auction-settlement-sweeper", tm.sweeper.Name())
}

func TestAuctionSettlementSweeper_SettlesExpiredAuctions(t *testing.T) {
	tm := setupTestSweeper(t, 10)
	defer tm.ctrl.Finish()

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(tm.now),
		tm.store.EXPECT().ListExpiredAuctionIDs(gomock.Any(), tm.now, 10).Return([]uint64{1, 2, 3, 4}, nil),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(1), testOperator).Return(&domain.Sale{ID: 7}, nil),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(2), testOperator).Return(nil, nil),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(3), testOperator).Return(nil, domain.ErrAlreadyEnded),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(4), testOperator).Return(nil, domain.ErrNotActive),
		tm.clock.EXPECT().Since(tm.now).Return(time.Millisecond),
		tm.expectSleep(),
	)

	done := tm.start(t, context.Background())

	// A second start while running is rejected
	assert.Error(t, tm.sweeper.Start(context.Background()))

	tm.stop(t, done)
}

func TestAuctionSettlementSweeper_FullBatchContinuesImmediately(t *testing.T) {
	tm := setupTestSweeper(t, 2)
	defer tm.ctrl.Finish()

	later := tm.now.Add(time.Second)
	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(tm.now),
		tm.store.EXPECT().ListExpiredAuctionIDs(gomock.Any(), tm.now, 2).Return([]uint64{1, 2}, nil),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(1), testOperator).Return(&domain.Sale{ID: 1}, nil),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(2), testOperator).Return(&domain.Sale{ID: 2}, nil),
		tm.clock.EXPECT().Since(tm.now).Return(time.Millisecond),
		tm.clock.EXPECT().Now().Return(later),
		tm.store.EXPECT().ListExpiredAuctionIDs(gomock.Any(), later, 2).Return(nil, nil),
		tm.expectSleep(),
	)

	done := tm.start(t, context.Background())
	tm.stop(t, done)
}

func TestAuctionSettlementSweeper_FailuresBackOff(t *testing.T) {
	tm := setupTestSweeper(t, 2)
	defer tm.ctrl.Finish()

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(tm.now),
		tm.store.EXPECT().ListExpiredAuctionIDs(gomock.Any(), tm.now, 2).Return([]uint64{5, 6}, nil),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(5), testOperator).Return(nil, domain.ErrSellerNoLongerOwns),
		tm.closer.EXPECT().EndAuction(gomock.Any(), uint64(6), testOperator).Return(nil, errors.New("database unavailable")),
		tm.clock.EXPECT().Since(tm.now).Return(time.Millisecond),
		tm.expectSleep(),
	)

	done := tm.start(t, context.Background())
	tm.stop(t, done)
}

func TestAuctionSettlementSweeper_StoreError(t *testing.T) {
	tm := setupTestSweeper(t, 10)
	defer tm.ctrl.Finish()

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(tm.now),
		tm.store.EXPECT().ListExpiredAuctionIDs(gomock.Any(), tm.now, 10).Return(nil, errors.New("connection refused")),
		tm.expectSleep(),
	)

	done := tm.start(t, context.Background())
	tm.stop(t, done)
}

func TestAuctionSettlementSweeper_ContextCancellation(t *testing.T) {
	tm := setupTestSweeper(t, 10)
	defer tm.ctrl.Finish()

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(tm.now),
		tm.store.EXPECT().ListExpiredAuctionIDs(gomock.Any(), tm.now, 10).Return(nil, nil),
		tm.expectSleep(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := tm.start(t, ctx)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop on cancellation")
	}

	// Stopping an exited sweeper is a no-op
	assert.NoError(t, tm.sweeper.Stop(context.Background()))
}

func TestAuctionSettlementSweeper_StopWithoutStart(t *testing.T) {
	tm := setupTestSweeper(t, 10)
	defer tm.ctrl.Finish()

	assert.NoError(t, tm.sweeper.Stop(context.Background()))
}
