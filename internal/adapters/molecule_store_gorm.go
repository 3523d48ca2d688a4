package adapters

import (
	"context"
	"errors"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

type moleculeRow struct {
	ID         int64    `gorm:"primaryKey;autoIncrement"`
	InChI      string   `gorm:"column:inchi;type:text"`
	Smiles     string   `gorm:"column:smiles;type:text"`
	InChIKey   string   `gorm:"column:inchi_key;size:27;uniqueIndex;not null"`
	ExactMass  *float64 `gorm:"column:exact_mass"`
	MolFormula string   `gorm:"column:mol_formula"`
}

func (moleculeRow) TableName() string { return "molecules" }

type moleculeLinkRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MoleculesID int64  `gorm:"column:molecules_id;not null;uniqueIndex:idx_molecule_package"`
	PackageID   string `gorm:"column:package_id;not null;uniqueIndex:idx_molecule_package;index"`
}

func (moleculeLinkRow) TableName() string { return "molecule_rel_data" }

type relatedResourceRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	PackageID     string `gorm:"column:package_id;not null;uniqueIndex:idx_related_package_name"`
	AlternateName string `gorm:"column:alternate_name;not null;uniqueIndex:idx_related_package_name"`
}

func (relatedResourceRow) TableName() string { return "related_resources" }

// MoleculeStoreGormAdapter persists molecule identities with GORM on
// SQLite or PostgreSQL.
type MoleculeStoreGormAdapter struct {
	DB *gorm.DB
}

func OpenMoleculeStore(driver string, dsn string) (MoleculeStoreGormAdapter, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", StoreDriverSQLite:
		if strings.TrimSpace(dsn) == "" {
			return MoleculeStoreGormAdapter{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("molecule store dsn is empty")
		}
		dialector = sqlite.Open(dsn)
	case StoreDriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return MoleculeStoreGormAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported molecule store driver: " + driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return MoleculeStoreGormAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open molecule store").
			WithCause(err)
	}
	return NewMoleculeStoreGormAdapter(db)
}

func NewMoleculeStoreGormAdapter(db *gorm.DB) (MoleculeStoreGormAdapter, error) {
	if err := db.AutoMigrate(&moleculeRow{}, &moleculeLinkRow{}, &relatedResourceRow{}); err != nil {
		return MoleculeStoreGormAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to migrate molecule store").
			WithCause(err)
	}
	return MoleculeStoreGormAdapter{DB: db}, nil
}

func (a MoleculeStoreGormAdapter) LookupByKey(ctx context.Context, inchiKey string) (types.MoleculeIdentity, bool, error) {
	var row moleculeRow
	err := a.DB.WithContext(ctx).Where("inchi_key = ?", inchiKey).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.MoleculeIdentity{}, false, nil
		}
		return types.MoleculeIdentity{}, false, storeError("lookup molecule", err)
	}
	return row.identity(), true, nil
}

// EnsureMolecule inserts with ON CONFLICT DO NOTHING on inchi_key and then
// reads the row back, so concurrent writers converge on one identity.
func (a MoleculeStoreGormAdapter) EnsureMolecule(ctx context.Context, molecule types.MoleculeIdentity) (types.MoleculeIdentity, bool, error) {
	if strings.TrimSpace(molecule.InChIKey) == "" {
		return types.MoleculeIdentity{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("inchi key is empty")
	}
	row := moleculeRow{
		InChI:      molecule.InChI,
		Smiles:     molecule.Smiles,
		InChIKey:   molecule.InChIKey,
		ExactMass:  molecule.ExactMass,
		MolFormula: molecule.MolFormula,
	}
	var stored moleculeRow
	created := false
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "inchi_key"}},
			DoNothing: true,
		}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected > 0
		return tx.Where("inchi_key = ?", molecule.InChIKey).First(&stored).Error
	})
	if err != nil {
		return types.MoleculeIdentity{}, false, storeError("create molecule", err)
	}
	return stored.identity(), created, nil
}

func (a MoleculeStoreGormAdapter) LinkExists(ctx context.Context, moleculeID int64, datasetID string) (bool, error) {
	var count int64
	err := a.DB.WithContext(ctx).Model(&moleculeLinkRow{}).
		Where("molecules_id = ? AND package_id = ?", moleculeID, datasetID).
		Count(&count).Error
	if err != nil {
		return false, storeError("lookup molecule link", err)
	}
	return count > 0, nil
}

func (a MoleculeStoreGormAdapter) Link(ctx context.Context, moleculeID int64, datasetID string) error {
	row := moleculeLinkRow{MoleculesID: moleculeID, PackageID: datasetID}
	err := a.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "molecules_id"}, {Name: "package_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return storeError("link molecule", err)
	}
	return nil
}

func (a MoleculeStoreGormAdapter) DeleteLinks(ctx context.Context, datasetID string) (int64, error) {
	result := a.DB.WithContext(ctx).Where("package_id = ?", datasetID).Delete(&moleculeLinkRow{})
	if result.Error != nil {
		return 0, storeError("delete molecule links", result.Error)
	}
	return result.RowsAffected, nil
}

func (a MoleculeStoreGormAdapter) DeleteRelatedResources(ctx context.Context, datasetID string) (int64, error) {
	result := a.DB.WithContext(ctx).Where("package_id = ?", datasetID).Delete(&relatedResourceRow{})
	if result.Error != nil {
		return 0, storeError("delete related resources", result.Error)
	}
	return result.RowsAffected, nil
}

func (a MoleculeStoreGormAdapter) AddRelatedResource(ctx context.Context, datasetID string, alternateName string) error {
	row := relatedResourceRow{PackageID: datasetID, AlternateName: alternateName}
	err := a.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "package_id"}, {Name: "alternate_name"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return storeError("add related resource", err)
	}
	return nil
}

func (a MoleculeStoreGormAdapter) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return storeError("close molecule store", err)
	}
	return sqlDB.Close()
}

func (r moleculeRow) identity() types.MoleculeIdentity {
	return types.MoleculeIdentity{
		ID:         r.ID,
		InChI:      r.InChI,
		Smiles:     r.Smiles,
		InChIKey:   r.InChIKey,
		ExactMass:  r.ExactMass,
		MolFormula: r.MolFormula,
	}
}

func storeError(operation string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("molecule store: failed to " + operation).
		WithCause(err)
}

var _ ports.MoleculeStorePort = MoleculeStoreGormAdapter{}
