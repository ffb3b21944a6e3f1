package domain

// Machine describes a karaoke machine vendor whose catalog numbers show up in
// results.
type Machine struct {
	Name  string
	Color string
}

var (
	MachineTJ = Machine{Name: "TJ", Color: "#00AFEC"}
	MachineKY = Machine{Name: "KY", Color: "#8877dd"}
)

// MachineFor maps a karaoke source to its vendor.
func MachineFor(source KaraokeSource) (Machine, bool) {
	switch source {
	case SourceTJ:
		return MachineTJ, true
	case SourceKY:
		return MachineKY, true
	default:
		return Machine{}, false
	}
}
