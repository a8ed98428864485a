package animgraph

// maxCompatibleTypes is the number of type tags a port can declare.
const maxCompatibleTypes = 4

// Port is a named, typed socket on a node. Input ports reference at most one
// incoming Connection; fan-out from an output port is not stored.
type Port struct {
	Name            string
	NameID          uint32
	PortID          uint32
	CompatibleTypes [maxCompatibleTypes]TypeID
	Connection      *Connection
}

// PrimaryType returns the first declared type tag.
func (p *Port) PrimaryType() TypeID {
	return p.CompatibleTypes[0]
}

// SetCompatibleTypes replaces the declared type tags. Extra tags beyond four are ignored.
func (p *Port) SetCompatibleTypes(types ...TypeID) {
	p.CompatibleTypes = [maxCompatibleTypes]TypeID{}
	copy(p.CompatibleTypes[:], types)
}

// ClearCompatibleTypes removes every declared type tag.
func (p *Port) ClearCompatibleTypes() {
	p.CompatibleTypes = [maxCompatibleTypes]TypeID{}
}

// CheckIfIsCompatibleWith reports whether the two ports share at least one type tag.
// Scanning either list stops at its first TypeNone entry.
//
// Parameters:
//   - other: the port on the other end of a prospective connection
//
// Returns:
//   - bool: true when a common non-zero tag exists
func (p *Port) CheckIfIsCompatibleWith(other *Port) bool {
	for _, a := range p.CompatibleTypes {
		if a == TypeNone {
			return false
		}
		for _, b := range other.CompatibleTypes {
			if b == TypeNone {
				break
			}
			if a == b {
				return true
			}
		}
	}
	return false
}

// IsConnected reports whether an input port has an incoming connection.
func (p *Port) IsConnected() bool {
	return p.Connection != nil
}
