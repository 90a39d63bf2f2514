package graph

import (
	"encoding/json"
	"math/bits"
	"strings"

	"github.com/turtacn/proteingraph/pkg/errors"
)

// BondKind is one label of the closed interaction vocabulary. The numeric
// value is the feature-encoding index and must stay stable.
type BondKind uint8

const (
	Backbone BondKind = iota
	Hydrophobic
	Disulfide
	HBond
	Ionic
	Aromatic
	AromaticSulphur
	CationPi
	Delaunay

	bondKindCount
)

// VocabularySize is the number of bond kinds.
const VocabularySize = int(bondKindCount)

var bondKindNames = [VocabularySize]string{
	Backbone:        "backbone",
	Hydrophobic:     "hydrophobic",
	Disulfide:       "disulfide",
	HBond:           "hbond",
	Ionic:           "ionic",
	Aromatic:        "aromatic",
	AromaticSulphur: "aromatic_sulphur",
	CationPi:        "cation_pi",
	Delaunay:        "delaunay",
}

// String returns the vocabulary label.
func (k BondKind) String() string {
	if !k.IsValid() {
		return "unknown"
	}
	return bondKindNames[k]
}

// IsValid reports whether k belongs to the vocabulary.
func (k BondKind) IsValid() bool {
	return k < bondKindCount
}

// Vocabulary returns every bond kind in encoding order.
func Vocabulary() []BondKind {
	out := make([]BondKind, VocabularySize)
	for i := range out {
		out[i] = BondKind(i)
	}
	return out
}

// ParseBondKind resolves a vocabulary label.
func ParseBondKind(s string) (BondKind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for i, name := range bondKindNames {
		if name == s {
			return BondKind(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownBondKind, "bond kind is not in the vocabulary").WithDetail(s)
}

// KindSet is a set of bond kinds stored as a bitset.
type KindSet uint16

const validKinds = KindSet(1)<<bondKindCount - 1

// NewKindSet returns the set of kinds.
func NewKindSet(kinds ...BondKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// Has reports membership.
func (s KindSet) Has(k BondKind) bool { return k.IsValid() && s&(1<<k) != 0 }

// With returns s ∪ {k}. Invalid kinds are ignored.
func (s KindSet) With(k BondKind) KindSet {
	if !k.IsValid() {
		return s
	}
	return s | 1<<k
}

// Without returns s \ {k}.
func (s KindSet) Without(k BondKind) KindSet {
	if !k.IsValid() {
		return s
	}
	return s &^ (1 << k)
}

// Union returns s ∪ o.
func (s KindSet) Union(o KindSet) KindSet { return s | o }

// IsEmpty reports whether no kind is set.
func (s KindSet) IsEmpty() bool { return s&validKinds == 0 }

// IsValid reports whether every set bit is a vocabulary kind.
func (s KindSet) IsValid() bool { return s&^validKinds == 0 }

// Len returns the number of kinds in s.
func (s KindSet) Len() int { return bits.OnesCount16(uint16(s & validKinds)) }

// Kinds returns the members in vocabulary order.
func (s KindSet) Kinds() []BondKind {
	out := make([]BondKind, 0, s.Len())
	for k := BondKind(0); k < bondKindCount; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Strings returns the member labels in vocabulary order.
func (s KindSet) Strings() []string {
	kinds := s.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}

func (s KindSet) String() string {
	return "{" + strings.Join(s.Strings(), ",") + "}"
}

// MarshalJSON encodes the set as a list of labels.
func (s KindSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes a list of labels.
func (s *KindSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode bond kinds")
	}
	return s.fromStrings(labels)
}

// MarshalYAML encodes the set as a list of labels.
func (s KindSet) MarshalYAML() (interface{}, error) {
	return s.Strings(), nil
}

// UnmarshalYAML decodes a list of labels.
func (s *KindSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var labels []string
	if err := unmarshal(&labels); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode bond kinds")
	}
	return s.fromStrings(labels)
}

func (s *KindSet) fromStrings(labels []string) error {
	var out KindSet
	for _, l := range labels {
		k, err := ParseBondKind(l)
		if err != nil {
			return err
		}
		out = out.With(k)
	}
	*s = out
	return nil
}
