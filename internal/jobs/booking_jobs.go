package jobs

import (
	"context"
	"time"

	"rentdesk-backend/internal/logger"
)

// SendOverdueDigests emails each configured shop a digest of ISSUED bookings
// whose rental window has already ended.
func (jr *JobRunner) SendOverdueDigests() {
	jr.runWithRecovery("SendOverdueDigests", func() {
		ctx := context.Background()
		now := time.Now().UTC()

		for _, shop := range jr.config.Shops {
			overdue, err := jr.store.Bookings().ListIssuedPastDue(ctx, shop.ShopID, now)
			if err != nil {
				logger.Error("Failed to list overdue bookings", "shop_id", shop.ShopID, "error", err)
				continue
			}
			if len(overdue) == 0 {
				logger.Debug("No overdue bookings", "shop_id", shop.ShopID)
				continue
			}
			if shop.NotifyEmail == "" {
				logger.Warn("Shop has overdue bookings but no notify email configured",
					"shop_id", shop.ShopID, "count", len(overdue))
				continue
			}

			if err := jr.services.Email.SendOverdueReturnDigest(ctx, shop.NotifyEmail, shop.ShopID, overdue); err != nil {
				logger.Error("Failed to send overdue digest", "shop_id", shop.ShopID, "error", err)
				continue
			}
			logger.Info("Sent overdue digest", "shop_id", shop.ShopID, "count", len(overdue))
		}
	})
}

// ReconcileOrderLedgers recomputes every active order's cached totals and
// status from its bookings' payment ledgers.
func (jr *JobRunner) ReconcileOrderLedgers() {
	jr.runWithRecovery("ReconcileOrderLedgers", func() {
		ctx := context.Background()

		for _, shop := range jr.config.Shops {
			orderIDs, err := jr.store.Orders().ListActiveIDs(ctx, shop.ShopID)
			if err != nil {
				logger.Error("Failed to list active orders", "shop_id", shop.ShopID, "error", err)
				continue
			}

			reconciled := 0
			for _, orderID := range orderIDs {
				if _, err := jr.services.Order.RecomputeOrder(ctx, shop.ShopID, orderID); err != nil {
					logger.Error("Failed to reconcile order ledger",
						"shop_id", shop.ShopID, "order_id", orderID, "error", err)
					continue
				}
				reconciled++
			}
			logger.Info("Reconciled order ledgers", "shop_id", shop.ShopID, "count", reconciled)
		}
	})
}
