package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/availability"
	"github.com/hackgods/consultation-booking/internal/config"
	"github.com/hackgods/consultation-booking/internal/db"
	"github.com/hackgods/consultation-booking/internal/logging"
)

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Medicine",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

// weekly windows given to every seeded doctor, Monday to Friday
var windows = [][2]string{{"09:00", "12:00"}, {"14:00", "17:00"}}

func main() {
	doctors := flag.Int("doctors", 100, "number of doctors to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").WithError(err).Fatal("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	logger.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("migrate")
	}

	if err := seedDoctors(ctx, pool, logger, *doctors); err != nil {
		logger.WithError(err).Fatal("seed doctors")
	}

	logger.Info("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, logger logrus.FieldLogger, count int) error {
	logger.WithField("count", count).Info("seeding doctors")

	const batchSize = 50

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		err := db.WithTx(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				if err := insertDoctor(ctx, tx); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.Infof("doctors seeded: %d/%d", end, count)
	}

	return nil
}

func insertDoctor(ctx context.Context, tx pgx.Tx) error {
	id := uuid.New()
	fee := float64(gofakeit.Number(3, 20) * 100)

	_, err := tx.Exec(ctx, `
		INSERT INTO doctors (id, user_id, license_number, specialization, consultation_fee, is_available, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, uuid.New(), fmt.Sprintf("MCI-%s", gofakeit.Numerify("########")),
		gofakeit.RandomString(specializations), fee, gofakeit.Float32Range(0, 1) > 0.1,
		float64(gofakeit.Number(30, 50))/10)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}

	for day := 1; day <= 5; day++ {
		for _, w := range windows {
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_slots (id, doctor_id, day_of_week, start_time, end_time, timezone)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, uuid.New(), id, day, w[0], w[1], availability.DefaultTimezone)
			if err != nil {
				return fmt.Errorf("insert slot: %w", err)
			}
		}
	}

	return nil
}
