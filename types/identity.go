package types

// Identity is an opaque principal address. The ledger never inspects its
// structure; only equality matters.
type Identity string

func (id Identity) IsZero() bool {
	return id == ""
}

func (id Identity) String() string {
	return string(id)
}
