package models

// TransferGroup is a resolved root case plus its direct counter-claims.
// It is never persisted.
type TransferGroup struct {
	Root          *Case
	CounterClaims []*Case
}

// Members returns the root followed by the counter-claims in link order.
func (g *TransferGroup) Members() []*Case {
	if g == nil || g.Root == nil {
		return nil
	}
	members := make([]*Case, 0, 1+len(g.CounterClaims))
	members = append(members, g.Root)
	members = append(members, g.CounterClaims...)
	return members
}

// Find returns the member with the given reference.
func (g *TransferGroup) Find(reference string) (*Case, bool) {
	for _, m := range g.Members() {
		if m.Reference == reference {
			return m, true
		}
	}
	return nil, false
}

// References lists member references in member order.
func (g *TransferGroup) References() []string {
	members := g.Members()
	refs := make([]string, 0, len(members))
	for _, m := range members {
		refs = append(refs, m.Reference)
	}
	return refs
}

// Size is the number of members.
func (g *TransferGroup) Size() int {
	return len(g.Members())
}
