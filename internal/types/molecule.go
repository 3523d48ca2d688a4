package types

type MoleculeIdentity struct {
	ID         int64
	InChI      string
	Smiles     string
	InChIKey   string
	ExactMass  *float64
	MolFormula string
}

type MoleculeLink struct {
	ID         int64
	MoleculeID int64
	DatasetID  string
}

// SyncResult reports the outcome of a molecule identity sync. Err is set
// only when Status is SyncStatusFailed.
type SyncResult struct {
	Status     SyncStatus
	MoleculeID int64
	Err        error
}

type DepictionResult struct {
	Status DepictionStatus
	Path   string
	Err    error
}
