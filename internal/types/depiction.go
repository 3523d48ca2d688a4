package types

// RenderOptions configures the depiction renderer. Rotation and atom
// options only apply to atom-set (CIF) structures.
type RenderOptions struct {
	DPI             int
	Transparent     bool
	RotationX       float64
	RotationY       float64
	RotationZ       float64
	AtomRadiusScale float64
	ShowUnitCell    bool
}

type DepictionRequest struct {
	Format    StructureFormat
	Structure string
	Options   RenderOptions
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		DPI:             300,
		Transparent:     true,
		AtomRadiusScale: 1.0,
	}
}
