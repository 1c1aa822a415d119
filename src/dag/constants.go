package dag

import "github.com/trustnote/trustnote-go/src/version"

const (
	// CountWitnesses is the exact size of a witness list.
	CountWitnesses = 12
	// MaxWitnessListMutations is how many addresses two compatible witness
	// lists may disagree on.
	MaxWitnessListMutations = 1
	// MaxParentsPerUnit caps the number of parents of a unit.
	MaxParentsPerUnit = 16
	// NoMainChainIndex marks units whose main chain index is not known yet.
	NoMainChainIndex = -1
)

// RequiredMatches is the minimum number of common addresses between two
// compatible witness lists.
const RequiredMatches = CountWitnesses - MaxWitnessListMutations

// Protocol tags a unit must carry to be used as a parent.
const (
	Version = version.ProtocolVersion
	Alt     = version.Alt
)
