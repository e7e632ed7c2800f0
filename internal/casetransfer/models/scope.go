package models

// TransferScope says whether a transfer stays inside the source family.
type TransferScope string

const (
	ScopeSameFamily  TransferScope = "same_family"
	ScopeCrossFamily TransferScope = "cross_family"
)

func (s TransferScope) IsValid() bool {
	return s == ScopeSameFamily || s == ScopeCrossFamily
}

// ScopeFor is the pure selection rule between the two transfer strategies.
func ScopeFor(source, destination Family) TransferScope {
	if source == destination {
		return ScopeSameFamily
	}
	return ScopeCrossFamily
}
