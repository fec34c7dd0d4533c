package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"medibook/infras/otel"
	"medibook/infras/postgres"
	"medibook/internal/domains/doctor/model"
	"medibook/shared/constant"
	gDto "medibook/shared/dto"
	gRepo "medibook/shared/repository"

	"github.com/rs/zerolog/log"
)

type Doctor interface {
	Insert(ctx context.Context, model model.Doctor) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Doctor, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Doctor, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type Location interface {
	Insert(ctx context.Context, model model.Location) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Location, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Location, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type Window interface {
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.AvailabilityWindow, error)
	ReplaceForDoctor(ctx context.Context, doctorID string, windows []model.AvailabilityWindow) error
}

type doctorRepositoryImpl struct {
	gRepo.Repository[model.Doctor]
	db   *postgres.Connection
	otel otel.Otel
}

func NewDoctor(db *postgres.Connection, otel otel.Otel) Doctor {
	return &doctorRepositoryImpl{
		Repository: gRepo.NewRepository[model.Doctor](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

type locationRepositoryImpl struct {
	gRepo.Repository[model.Location]
	db   *postgres.Connection
	otel otel.Otel
}

func NewLocation(db *postgres.Connection, otel otel.Otel) Location {
	return &locationRepositoryImpl{
		Repository: gRepo.NewRepository[model.Location](model.LocationEntityName, model.LocationTableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

type windowRepositoryImpl struct {
	gRepo.Repository[model.AvailabilityWindow]
	db   *postgres.Connection
	otel otel.Otel
}

func NewWindow(db *postgres.Connection, otel otel.Otel) Window {
	return &windowRepositoryImpl{
		Repository: gRepo.NewRepository[model.AvailabilityWindow](model.WindowEntityName, model.WindowTableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// ReplaceForDoctor swaps the doctor's weekly schedule in one transaction so
// readers never observe a half-replaced week.
func (repo *windowRepositoryImpl) ReplaceForDoctor(ctx context.Context, doctorID string, windows []model.AvailabilityWindow) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.WindowEntityName+".ReplaceForDoctor")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.WindowTableName,
				Field:    model.FieldDoctorID,
				Operator: gDto.FilterOperatorEq,
				Value:    doctorID,
			},
		},
	}

	if err = repo.DeleteTx(ctx, tx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete existing availability windows")

		return fmt.Errorf("failed to delete existing availability windows: %w", err)
	}

	if len(windows) > 0 {
		if err = repo.InsertBulkTx(ctx, tx, windows); err != nil {
			log.Error().Err(err).Msg("failed to insert availability windows")

			return fmt.Errorf("failed to insert availability windows: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
