// Package arena implements the uniform fixed-node allocator backing
// arrays, keylists, varlists, and pairings (spec.md §2 "Arena & stub
// pool"). Every heap node rebcore's evaluator touches — a block's
// backing array, a context's keylist/varlist pair, a two-cell pairing
// — is a Stub inside one Arena, addressed by a cell.NodeRef handle
// rather than a pointer, so the cell model never needs raw pointer
// identity.
package arena

// Flavor tags what a Stub's Cells slice represents, driving both how
// the garbage collector marks its link/misc/info slots (spec.md §4.6)
// and how series.go interprets its contents.
type Flavor uint8

const (
	FlavorPlainList Flavor = iota // ordinary block!/group! contents
	FlavorKeylist                 // context keys: symbol NodeRefs only
	FlavorVarlist                 // context values: rootvar at index 0
	FlavorDetails                 // action implementation phases
	FlavorParamlist               // action parameter specs
	FlavorPatch                   // module hitch-chain link for one symbol
	FlavorPairlist                // alternating key/value pairs (maps)
	FlavorNodeList                // list of raw node references (e.g. guarded roots)
	FlavorPairing                 // two-cell micro-node (API handles, etc.)
)

func (f Flavor) String() string {
	switch f {
	case FlavorPlainList:
		return "plain-list"
	case FlavorKeylist:
		return "keylist"
	case FlavorVarlist:
		return "varlist"
	case FlavorDetails:
		return "details"
	case FlavorParamlist:
		return "paramlist"
	case FlavorPatch:
		return "patch"
	case FlavorPairlist:
		return "pairlist"
	case FlavorNodeList:
		return "node-list"
	case FlavorPairing:
		return "pairing"
	default:
		return "unknown-flavor"
	}
}
