package cron

import (
	"context"
	"log"
	"time"

	"villamar/config"
	bookingRepo "villamar/database/repository/booking"
	paymentRepo "villamar/database/repository/payment"
	"villamar/models"
	"villamar/services/notify"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeExpireSweep = "payments:expire_sweep"

// SweepDeps carries what the expiry sweep needs.
type SweepDeps struct {
	Payments   paymentRepo.PaymentRecordRepository
	Bookings   bookingRepo.BookingRepository
	Automation notify.AutomationDispatcher
	Logger     *zap.Logger
}

// InitExpireSweepWorker runs the async worker plus its hourly schedule in
// the background. The sweep is the periodic job that turns logically
// expired SEPA records into cancelled ones; approval-time expiry checks do
// not depend on it.
func InitExpireSweepWorker(deps SweepDeps) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpireSweep, handleExpireSweep(deps))

	go func() {
		log.Println("[ExpireSweep] starting async worker")
		if err := srv.Run(mux); err != nil {
			log.Printf("[ExpireSweep] worker stopped: %v", err)
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts, nil)
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeExpireSweep, nil)); err != nil {
		log.Printf("[ExpireSweep] failed to register schedule: %v", err)
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[ExpireSweep] scheduler stopped: %v", err)
		}
	}()
}

func handleExpireSweep(deps SweepDeps) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		overdue, err := deps.Payments.ListOverdue(ctx, time.Now())
		if err != nil {
			return err
		}

		for _, record := range overdue {
			if err := deps.Payments.UpdateStatusFrom(ctx, record.ID,
				models.PaymentStatusPending, models.PaymentStatusCancelled, ""); err != nil {
				// Raced an admin action; leave this one alone.
				deps.Logger.Warn("sweep skipped record",
					zap.String("recordId", record.ID), zap.Error(err))
				continue
			}

			if err := deps.Bookings.UpdateStatusFrom(ctx, record.BookingID,
				models.BookingStatusPending, models.BookingStatusCancelled); err != nil {
				deps.Logger.Warn("sweep could not cancel booking",
					zap.String("bookingId", record.BookingID), zap.Error(err))
			}

			res := deps.Automation.Trigger(ctx, notify.EventPaymentExpired, record.BookingID, map[string]string{
				"recordId":  record.ID,
				"reference": record.Reference,
			})
			if !res.Dispatched {
				deps.Logger.Warn("payment_expired trigger failed",
					zap.String("recordId", record.ID), zap.String("error", res.Error))
			}

			deps.Logger.Info("expired transfer cancelled",
				zap.String("recordId", record.ID),
				zap.String("bookingId", record.BookingID),
				zap.String("reference", record.Reference))
		}
		return nil
	}
}
