package registry

// Selector picks a subset of the registry to resolve: either every
// registered device, or an explicit, order-preserving, de-duplicated
// list of names.
type Selector struct {
	all   bool
	names []string
}

// All selects every device in the registry's insertion order.
func All() Selector { return Selector{all: true} }

// Names selects the given devices, in the order requested. Duplicate and
// unknown names are handled by Resolve, not by the selector itself.
func Names(names []string) Selector { return Selector{names: names} }

func (s Selector) isAll() bool { return s.all }
