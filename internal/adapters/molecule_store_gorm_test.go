package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chem-datapackager/internal/types"
)

func newTestMoleculeStore(t *testing.T) MoleculeStoreGormAdapter {
	t.Helper()
	store, err := OpenMoleculeStore(StoreDriverSQLite, filepath.Join(t.TempDir(), "molecules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func caffeine() types.MoleculeIdentity {
	mass := 194.080376
	return types.MoleculeIdentity{
		InChI:      "InChI=1S/C8H10N4O2/c1-10-4-9-6-5(10)7(13)12(3)8(14)11(6)2/h4H,1-3H3",
		Smiles:     "CN1C=NC2=C1C(=O)N(C(=O)N2C)C",
		InChIKey:   "RYYVLZVUVIJVGH-UHFFFAOYSA-N",
		ExactMass:  &mass,
		MolFormula: "C8H10N4O2",
	}
}

func TestMoleculeStore_EnsureIsIdempotent(t *testing.T) {
	store := newTestMoleculeStore(t)
	ctx := context.Background()

	first, created, err := store.EnsureMolecule(ctx, caffeine())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)

	second, created, err := store.EnsureMolecule(ctx, caffeine())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, store.DB.Model(&moleculeRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, ok, err := store.LookupByKey(ctx, caffeine().InChIKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, found)
	require.NotNil(t, found.ExactMass)
	assert.InDelta(t, 194.080376, *found.ExactMass, 1e-9)
}

func TestMoleculeStore_LookupMissing(t *testing.T) {
	store := newTestMoleculeStore(t)
	_, ok, err := store.LookupByKey(context.Background(), "XLYOFNOQVPJJNP-UHFFFAOYSA-N")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMoleculeStore_Links(t *testing.T) {
	store := newTestMoleculeStore(t)
	ctx := context.Background()
	molecule, _, err := store.EnsureMolecule(ctx, caffeine())
	require.NoError(t, err)

	linked, err := store.LinkExists(ctx, molecule.ID, "msbnk-1")
	require.NoError(t, err)
	assert.False(t, linked)

	require.NoError(t, store.Link(ctx, molecule.ID, "msbnk-1"))
	require.NoError(t, store.Link(ctx, molecule.ID, "msbnk-1"))
	require.NoError(t, store.Link(ctx, molecule.ID, "msbnk-2"))

	linked, err = store.LinkExists(ctx, molecule.ID, "msbnk-1")
	require.NoError(t, err)
	assert.True(t, linked)

	removed, err := store.DeleteLinks(ctx, "msbnk-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	linked, err = store.LinkExists(ctx, molecule.ID, "msbnk-2")
	require.NoError(t, err)
	assert.True(t, linked)
}

func TestMoleculeStore_RelatedResources(t *testing.T) {
	store := newTestMoleculeStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddRelatedResource(ctx, "data_abc123", "benzene"))
	require.NoError(t, store.AddRelatedResource(ctx, "data_abc123", "benzene"))
	require.NoError(t, store.AddRelatedResource(ctx, "data_abc123", "benzol"))
	require.NoError(t, store.AddRelatedResource(ctx, "other", "benzene"))

	removed, err := store.DeleteRelatedResources(ctx, "data_abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestOpenMoleculeStore_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
	}{
		{name: "unknown driver", driver: "oracle", dsn: "x"},
		{name: "sqlite without dsn", driver: StoreDriverSQLite, dsn: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenMoleculeStore(tt.driver, tt.dsn)
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}

func TestMoleculeStore_EnsureRejectsEmptyKey(t *testing.T) {
	store := newTestMoleculeStore(t)
	_, _, err := store.EnsureMolecule(context.Background(), types.MoleculeIdentity{InChI: "InChI=1S/H2O/h1H2"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
