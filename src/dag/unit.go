package dag

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// Sequence is the validation status of a unit.
type Sequence string

const (
	// SequenceGood units are valid and non-conflicting.
	SequenceGood Sequence = "good"
	// SequenceTempBad units conflict with another unit and await resolution.
	SequenceTempBad Sequence = "temp-bad"
	// SequenceFinalBad units lost a conflict.
	SequenceFinalBad Sequence = "final-bad"
)

// Unit is the part of a DAG node that parent selection and stabilization
// read. Witnesses is only set on units that define their own witness list;
// the others point to the defining ancestor through WitnessListUnit.
//
// Build units with NewUnit: the zero value has main chain index 0.
type Unit struct {
	Unit            string
	Version         string
	Alt             string
	ParentUnits     []string
	WitnessListUnit string
	Witnesses       []string
	BestParentUnit  string
	Level           int
	WitnessedLevel  int
	MainChainIndex  int // NoMainChainIndex until assigned
	IsFree          bool
	IsStable        bool
	IsOnMainChain   bool
	Sequence        Sequence
	Ball            string
}

// NewUnit returns a good, free unit without main chain index, tagged with the
// current protocol version and alt.
func NewUnit(unit string, parents ...string) *Unit {
	return &Unit{
		Unit:           unit,
		Version:        Version,
		Alt:            Alt,
		ParentUnits:    parents,
		MainChainIndex: NoMainChainIndex,
		IsFree:         true,
		Sequence:       SequenceGood,
	}
}

// HasMainChainIndex reports whether the unit was assigned a main chain index.
func (u *Unit) HasMainChainIndex() bool {
	return u.MainChainIndex != NoMainChainIndex
}

// IsGood reports whether the unit's sequence is good.
func (u *Unit) IsGood() bool {
	return u.Sequence == SequenceGood
}

// MatchesNetwork reports whether the unit carries the current protocol
// version and alt.
func (u *Unit) MatchesNetwork() bool {
	return u.Version == Version && u.Alt == Alt
}

// WitnessDefiner returns the id of the unit that defines u's witness list.
func (u *Unit) WitnessDefiner() string {
	if u.WitnessListUnit != "" {
		return u.WitnessListUnit
	}
	return u.Unit
}

// Copy returns a deep copy of the unit.
func (u *Unit) Copy() *Unit {
	c := *u
	c.ParentUnits = append([]string(nil), u.ParentUnits...)
	c.Witnesses = append([]string(nil), u.Witnesses...)
	return &c
}

// Marshal encodes the unit with canonical JSON.
func (u *Unit) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(u); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal decodes a unit produced by Marshal.
func (u *Unit) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(u)
}
