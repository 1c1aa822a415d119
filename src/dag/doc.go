// Package dag selects the parents and the last stable ball of a new unit.
//
// Units form a directed acyclic graph. Every unit names a witness list, either
// its own or the one defined by an ancestor it references through
// WitnessListUnit. A new unit may only build on units whose witness lists
// agree with its own in at least CountWitnesses - MaxWitnessListMutations
// addresses, and it must reference a last stable ball that is still stable in
// the view of the parents it picked.
//
// The Composer runs the whole computation inside one Store.View call so that
// every read observes the same snapshot of the DAG:
//
//  1. PickParentUnits takes compatible free units, or falls back to the single
//     compatible good unit with the highest main chain index.
//  2. FindLastStableMcBall finds the latest stable main chain unit with a
//     compatible witness list.
//  3. AdjustLastStableMcBallAndParents collapses the parents to one deep unit,
//     or walks the anchor back along best parents, until the anchor is stable
//     in view of the parents.
//  4. MainChain.CheckWitnessListMutationsAlongMC rejects compositions whose
//     main chain crosses too many witness list mutations.
//
// Any failure aborts the composition; no partial result is returned.
package dag
