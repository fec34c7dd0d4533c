package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medibook/config"
	"medibook/infras/otel"
	"medibook/infras/postgres"
	"medibook/internal/domains/appointment/model"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	"medibook/shared/failure"
	gRepo "medibook/shared/repository"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type Appointment interface {
	CreateWithSerial(ctx context.Context, appointment model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Appointment, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Appointment, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Appointment]
	db   *postgres.Connection
	cfg  *config.Config
	otel otel.Otel

	// one allocation attempt, swapped out in tests
	attempt func(ctx context.Context, appointment model.Appointment) (model.Appointment, error)
}

func New(db *postgres.Connection, cfg *config.Config, otel otel.Otel) Appointment {
	repo := &repositoryImpl{
		Repository: gRepo.NewRepository[model.Appointment](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		cfg:        cfg,
		otel:       otel,
	}
	repo.attempt = repo.tryCreateWithSerial

	return repo
}

// CreateWithSerial inserts the appointment with the next serial number for
// its (doctor, day) partition. The read-then-insert runs in one transaction;
// concurrent bookings racing for the same partition are serialized by the row
// lock, and the unique index on (doctor_id, date, serial_no) backstops the
// empty-partition race. A losing transaction is retried before the conflict
// is surfaced.
func (repo *repositoryImpl) CreateWithSerial(ctx context.Context, appointment model.Appointment) (res model.Appointment, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".CreateWithSerial")
	defer scope.End()
	defer scope.TraceIfError(err)

	attempts := repo.cfg.Booking.SerialMaxRetries + 1

	for attempt := range attempts {
		res, err = repo.attempt(ctx, appointment)
		if err == nil {
			return res, nil
		}

		if !isUniqueViolation(err) {
			return model.Appointment{}, err
		}

		log.Warn().
			Str("doctorID", appointment.DoctorID).
			Time("date", appointment.Date).
			Int("attempt", attempt+1).
			Msg("serial number collision, retrying")
	}

	return model.Appointment{}, failure.Transient("could not complete the booking due to concurrent requests, please try again") // nolint:wrapcheck
}

func (repo *repositoryImpl) tryCreateWithSerial(ctx context.Context, appointment model.Appointment) (res model.Appointment, err error) {
	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")

		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC LIMIT 1 FOR UPDATE",
		model.FieldSerialNo, model.TableName, model.FieldDoctorID, model.FieldDate, model.FieldSerialNo,
	)

	var maxSerial int

	err = tx.GetContext(ctx, &maxSerial, query, appointment.DoctorID, appointment.Date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Msg("failed to read max serial number")

		return res, fmt.Errorf("failed to read max serial number: %w", err)
	}

	appointment.SerialNo = maxSerial + 1

	if err = repo.InsertTx(ctx, tx, appointment); err != nil {
		return res, err // nolint:wrapcheck
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")

		return res, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return appointment, nil
}

// Update lets staff correct fields after booking. Reassigning a serial
// number can collide with the (doctor_id, date, serial_no) index; that is a
// conflict with another appointment, not an internal error.
func (repo *repositoryImpl) Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error {
	if err := repo.Repository.Update(ctx, req, filter); err != nil {
		if isUniqueViolation(err) {
			return failure.Conflict("serial number is already taken for this doctor and date") // nolint:wrapcheck
		}

		return err // nolint:wrapcheck
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
	}

	return false
}
