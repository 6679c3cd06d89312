package goflow

// Plane is a continuous-angle measurement basis plane.
// The discriminants are stable and mirrored by the binding layer.
type Plane int32

const (
	PlaneXY Plane = 0
	PlaneYZ Plane = 1
	PlaneXZ Plane = 2
)

// PPlane extends Plane with the fixed Pauli bases.
// The three plane values share their Plane discriminants.
type PPlane int32

const (
	PPlaneXY PPlane = 0
	PPlaneYZ PPlane = 1
	PPlaneXZ PPlane = 2
	PPlaneX  PPlane = 3
	PPlaneY  PPlane = 4
	PPlaneZ  PPlane = 5
)

// PlaneMap assigns a measurement plane to each non-output vertex.
type PlaneMap map[int]Plane

// PPlaneMap assigns a measurement plane or Pauli basis to each non-output vertex.
type PPlaneMap map[int]PPlane

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneYZ:
		return "YZ"
	case PlaneXZ:
		return "XZ"
	}
	return "??"
}

func (pp PPlane) String() string {
	switch pp {
	case PPlaneXY:
		return "XY"
	case PPlaneYZ:
		return "YZ"
	case PPlaneXZ:
		return "XZ"
	case PPlaneX:
		return "X"
	case PPlaneY:
		return "Y"
	case PPlaneZ:
		return "Z"
	}
	return "??"
}

// Lift maps a continuous plane to its PPlane counterpart.
func (p Plane) Lift() PPlane {
	return PPlane(p)
}

// IsPauli returns true for the fixed-basis values X, Y, Z.
func (pp PPlane) IsPauli() bool {
	return pp >= PPlaneX
}

// AsPlane returns the continuous plane for a non-Pauli PPlane.
func (pp PPlane) AsPlane() (Plane, bool) {
	if pp.IsPauli() {
		return 0, false
	}
	return Plane(pp), true
}

// ParsePlane reads a plane label; "ZX" is accepted as an alias of "XZ".
func ParsePlane(label string) (Plane, error) {
	switch label {
	case "XY", "xy":
		return PlaneXY, nil
	case "YZ", "yz":
		return PlaneYZ, nil
	case "XZ", "xz", "ZX", "zx":
		return PlaneXZ, nil
	}
	return 0, ErrBadPlane
}

// ParsePPlane reads a plane or Pauli label.
func ParsePPlane(label string) (PPlane, error) {
	switch label {
	case "X", "x":
		return PPlaneX, nil
	case "Y", "y":
		return PPlaneY, nil
	case "Z", "z":
		return PPlaneZ, nil
	}
	p, err := ParsePlane(label)
	if err != nil {
		return 0, ErrBadPlane
	}
	return p.Lift(), nil
}

// Lift converts a PlaneMap to the equivalent PPlaneMap.
func (planes PlaneMap) Lift() PPlaneMap {
	pplanes := make(PPlaneMap, len(planes))
	for vi, p := range planes {
		pplanes[vi] = p.Lift()
	}
	return pplanes
}

// Restrict converts a PPlaneMap with no Pauli entries back to a PlaneMap.
func (pplanes PPlaneMap) Restrict() (PlaneMap, error) {
	planes := make(PlaneMap, len(pplanes))
	for vi, pp := range pplanes {
		p, ok := pp.AsPlane()
		if !ok {
			return nil, ErrPauliMeasurement
		}
		planes[vi] = p
	}
	return planes, nil
}
