package schema

// KeyStrategy classifies how a mapped type's primary key is supplied.
type KeyStrategy int

const (
	KeyNone               KeyStrategy = iota // The type declares no key
	KeySingleAutoGenerated                   // One integer key generated by the database
	KeySingleAssigned                        // One key supplied by the caller
	KeyComposite                             // Two or more keys, all supplied by the caller
)

func (s KeyStrategy) String() string {
	switch s {
	case KeyNone:
		return "none"
	case KeySingleAutoGenerated:
		return "single-auto-generated"
	case KeySingleAssigned:
		return "single-assigned"
	case KeyComposite:
		return "composite"
	}
	return "unknown"
}

// ResolveKeyStrategy classifies keys. Rules apply in order: no keys is
// KeyNone; one integer key not marked assigned is KeySingleAutoGenerated; any
// other single key is KeySingleAssigned; more than one is KeyComposite.
func ResolveKeyStrategy(keys []*MemberDescriptor) KeyStrategy {
	switch {
	case len(keys) == 0:
		return KeyNone
	case len(keys) == 1 && keys[0].Kind == KindInteger && !keys[0].Assigned:
		return KeySingleAutoGenerated
	case len(keys) == 1:
		return KeySingleAssigned
	default:
		return KeyComposite
	}
}
