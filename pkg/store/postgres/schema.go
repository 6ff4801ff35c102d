package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/store/postgres/migrations"
)

// ModelRegistrationSchema records each (name, version) pair a prediction has
// been made with. Rows are upserted and never deleted.
type ModelRegistrationSchema struct {
	bun.BaseModel `bun:"table:model_registration,alias:mr" yaml:"-"`

	ID        int64     `bun:",pk,autoincrement"                                           yaml:"id,omitempty"`
	Name      string    `bun:",notnull,unique:model_registration_name_version_key"         yaml:"name"`
	Version   string    `bun:",notnull,unique:model_registration_name_version_key"         yaml:"version"`
	CreatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"created_at,omitempty"`
}

// BeforeCreateTable is a marker method to ensure uniform interface across all table models - used in table creation iterator
func (s *ModelRegistrationSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// PredictionSchema is a single stored prediction. Rows are inserted once and
// never updated.
type PredictionSchema struct {
	bun.BaseModel `bun:"table:entity_prediction,alias:ep" yaml:"-"`

	ID                  int64                    `bun:",pk,autoincrement"                                               yaml:"id,omitempty"`
	UUID                uuid.UUID                `bun:"type:uuid,notnull,unique,default:gen_random_uuid()"              yaml:"uuid"`
	ExternalID          int64                    `bun:"external_id,notnull"                                             yaml:"external_id"`
	ModelRegistrationID int64                    `bun:"model_registration_id,notnull"                                   yaml:"model_registration_id"`
	ExtractedEntities   []models.EntitySpan      `bun:"type:jsonb,notnull"                                              yaml:"extracted_entities"`
	Language            string                   `bun:",nullzero"                                                       yaml:"language,omitempty"`
	ResponseTimeMS      int64                    `bun:"response_time_ms,notnull"                                        yaml:"response_time_ms"`
	CreatedAt           time.Time                `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"     yaml:"created_at,omitempty"`
	ModelRegistration   *ModelRegistrationSchema `bun:"rel:belongs-to,join:model_registration_id=id,on_delete:restrict" yaml:"-"                     copier:"-"`
}

func (s *PredictionSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

var _ bun.AfterCreateTableHook = (*PredictionSchema)(nil)

// AfterCreateTable indexes the columns predictions are looked up by.
func (*PredictionSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*PredictionSchema)(nil)).
		Index("entity_prediction_external_id_idx").
		Column("external_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = query.DB().NewCreateIndex().
		Model((*PredictionSchema)(nil)).
		Index("entity_prediction_model_registration_id_idx").
		Column("model_registration_id").
		IfNotExists().
		Exec(ctx)
	return err
}

// tableList is ordered so that referenced tables come first.
var tableList = []bun.BeforeCreateTableHook{
	&ModelRegistrationSchema{},
	&PredictionSchema{},
}

// CreateSchema creates the db schema if it does not exist and applies any
// pending migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, schema := range tableList {
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	if err := migrations.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
