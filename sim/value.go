// Defines the numeric value carried by items and the arithmetic strategies
// that operate on it.

package sim

import (
	"fmt"
	"math/big"
	"math/bits"
	"sort"
	"strconv"
)

// Representation selects how item values are stored.
type Representation string

const (
	// RepresentationAuto picks exact when relief is enabled, residue otherwise.
	RepresentationAuto Representation = "auto"
	// RepresentationResidue stores n mod lcm(D). Constant cost per operation,
	// but the true magnitude is lost, so relief cannot be applied.
	RepresentationResidue Representation = "residue"
	// RepresentationExact stores the unbounded integer. Cost grows with magnitude.
	RepresentationExact Representation = "exact"
)

// ValidRepresentations is the set of recognized representation names.
var ValidRepresentations = map[Representation]bool{
	"":                    true,
	RepresentationAuto:    true,
	RepresentationResidue: true,
	RepresentationExact:   true,
}

// Value is an immutable item value. A Value may only be combined with
// values produced by the same Arithmetic.
type Value interface {
	fmt.Stringer
}

// Arithmetic builds and combines Values. It answers divisibility exactly for
// every divisor it was constructed with.
type Arithmetic interface {
	Representation() Representation
	FromLiteral(n uint64) Value
	Add(a, b Value) Value
	Mul(a, b Value) Value
	// DivisibleBy reports whether d divides v. d must be one of the divisors
	// the Arithmetic was built for.
	DivisibleBy(v Value, d uint64) (bool, error)
	// FloorDiv returns floor(v / k). Only supported by the exact representation.
	FloorDiv(v Value, k uint64) (Value, error)
}

// NewArithmetic builds the arithmetic for the given representation over the
// divisor set D. RepresentationAuto must be resolved by the caller.
func NewArithmetic(repr Representation, divisors []uint64) (Arithmetic, error) {
	switch repr {
	case RepresentationResidue:
		ra, err := newResidueArithmetic(divisors)
		if err != nil {
			return nil, err
		}
		return ra, nil
	case RepresentationExact:
		return exactArithmetic{}, nil
	default:
		return nil, fmt.Errorf("unknown representation %q; valid: residue, exact", repr)
	}
}

// gcd returns the greatest common divisor of a and b.
func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of the divisors. ok is false when the
// result does not fit in a uint64 or a divisor is zero.
func LCM(divisors []uint64) (m uint64, ok bool) {
	m = 1
	for _, d := range divisors {
		if d == 0 {
			return 0, false
		}
		step := d / gcd(m, d)
		hi, lo := bits.Mul64(m, step)
		if hi != 0 {
			return 0, false
		}
		m = lo
	}
	return m, true
}

type residueValue uint64

func (v residueValue) String() string { return strconv.FormatUint(uint64(v), 10) }

// ResidueArithmetic stores every value as its residue modulo M = lcm(D).
type ResidueArithmetic struct {
	modulus  uint64
	divisors map[uint64]bool
}

func newResidueArithmetic(divisors []uint64) (*ResidueArithmetic, error) {
	m, ok := LCM(divisors)
	if !ok {
		return nil, fmt.Errorf("lcm of divisors %v does not fit in 64 bits", divisors)
	}
	set := make(map[uint64]bool, len(divisors))
	for _, d := range divisors {
		set[d] = true
	}
	return &ResidueArithmetic{modulus: m, divisors: set}, nil
}

// Modulus returns M.
func (ra *ResidueArithmetic) Modulus() uint64 { return ra.modulus }

// Divisors returns D in ascending order.
func (ra *ResidueArithmetic) Divisors() []uint64 {
	out := make([]uint64, 0, len(ra.divisors))
	for d := range ra.divisors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (ra *ResidueArithmetic) Representation() Representation { return RepresentationResidue }

func (ra *ResidueArithmetic) FromLiteral(n uint64) Value {
	return residueValue(n % ra.modulus)
}

func (ra *ResidueArithmetic) Add(a, b Value) Value {
	sum, carry := bits.Add64(uint64(a.(residueValue)), uint64(b.(residueValue)), 0)
	return residueValue(bits.Rem64(carry, sum, ra.modulus))
}

func (ra *ResidueArithmetic) Mul(a, b Value) Value {
	hi, lo := bits.Mul64(uint64(a.(residueValue)), uint64(b.(residueValue)))
	return residueValue(bits.Rem64(hi, lo, ra.modulus))
}

func (ra *ResidueArithmetic) DivisibleBy(v Value, d uint64) (bool, error) {
	if !ra.divisors[d] {
		// n mod d is only recoverable from n mod M when d divides M.
		return false, fmt.Errorf("divisor %d is not part of the modulus %d", d, ra.modulus)
	}
	return uint64(v.(residueValue))%d == 0, nil
}

func (ra *ResidueArithmetic) FloorDiv(Value, uint64) (Value, error) {
	return nil, fmt.Errorf("floor division needs the exact magnitude; residue representation keeps only n mod %d", ra.modulus)
}

type exactValue struct {
	n *big.Int
}

func (v exactValue) String() string { return v.n.String() }

// exactArithmetic stores every value as an arbitrary-precision integer.
type exactArithmetic struct{}

func (exactArithmetic) Representation() Representation { return RepresentationExact }

func (exactArithmetic) FromLiteral(n uint64) Value {
	return exactValue{n: new(big.Int).SetUint64(n)}
}

func (exactArithmetic) Add(a, b Value) Value {
	return exactValue{n: new(big.Int).Add(a.(exactValue).n, b.(exactValue).n)}
}

func (exactArithmetic) Mul(a, b Value) Value {
	return exactValue{n: new(big.Int).Mul(a.(exactValue).n, b.(exactValue).n)}
}

func (exactArithmetic) DivisibleBy(v Value, d uint64) (bool, error) {
	if d == 0 {
		return false, fmt.Errorf("divisor must be positive")
	}
	rem := new(big.Int).Rem(v.(exactValue).n, new(big.Int).SetUint64(d))
	return rem.Sign() == 0, nil
}

func (exactArithmetic) FloorDiv(v Value, k uint64) (Value, error) {
	if k == 0 {
		return nil, fmt.Errorf("relief divisor must be positive")
	}
	// values are non-negative, so truncation equals floor
	return exactValue{n: new(big.Int).Quo(v.(exactValue).n, new(big.Int).SetUint64(k))}, nil
}
