package money

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// EGLDDecimals is the number of decimal places in one EGLD.
const EGLDDecimals = 18

var (
	// ErrInvalidFormat occurs when parsing a decimal string fails.
	ErrInvalidFormat = errors.New("money: invalid format")

	// ErrNotPositive occurs when an amount is zero or negative where a
	// positive amount is required.
	ErrNotPositive = errors.New("money: amount must be positive")
)

// Amount represents an EGLD amount in atomic units (10^-18 EGLD).
// All arithmetic is performed on big.Int to avoid floating-point precision
// issues; EGLD's 18 decimals overflow int64 above ~9.2 EGLD.
type Amount struct {
	atomic *big.Int
}

var atomicPerEGLD = new(big.Int).Exp(big.NewInt(10), big.NewInt(EGLDDecimals), nil)

// Zero returns a zero amount.
func Zero() Amount {
	return Amount{atomic: new(big.Int)}
}

// FromAtomic creates an Amount from atomic units.
func FromAtomic(atomic *big.Int) Amount {
	return Amount{atomic: new(big.Int).Set(atomic)}
}

// FromMajor parses a decimal EGLD string (e.g. "0.5") into an Amount.
// At most 18 fractional digits are accepted; there is no rounding.
func FromMajor(major string) (Amount, error) {
	s := strings.TrimSpace(major)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty string", ErrInvalidFormat)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Amount{}, fmt.Errorf("%w: too many decimal points", ErrInvalidFormat)
	}

	integerPart := parts[0]
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}
	if integerPart == "" && fractionalPart == "" {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, major)
	}
	if integerPart == "" {
		integerPart = "0"
	}
	if len(fractionalPart) > EGLDDecimals {
		return Amount{}, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidFormat, EGLDDecimals)
	}

	if !isDigits(integerPart) || (fractionalPart != "" && !isDigits(fractionalPart)) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, major)
	}

	// Pad the fractional part out to 18 digits so the concatenation is the
	// exact atomic value.
	padded := fractionalPart + strings.Repeat("0", EGLDDecimals-len(fractionalPart))

	atomic, ok := new(big.Int).SetString(integerPart+padded, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, major)
	}
	if neg {
		atomic.Neg(atomic)
	}

	return Amount{atomic: atomic}, nil
}

// ParsePositive parses a decimal EGLD string and requires it to be > 0.
func ParsePositive(major string) (Amount, error) {
	amt, err := FromMajor(major)
	if err != nil {
		return Amount{}, err
	}
	if amt.atomic.Sign() <= 0 {
		return Amount{}, ErrNotPositive
	}
	return amt, nil
}

// Atomic returns a copy of the amount in atomic units.
func (a Amount) Atomic() *big.Int {
	if a.atomic == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.atomic)
}

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool {
	return a.atomic == nil || a.atomic.Sign() == 0
}

// Cmp compares a and b, returning -1, 0, or +1.
func (a Amount) Cmp(b Amount) int {
	return a.Atomic().Cmp(b.Atomic())
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{atomic: new(big.Int).Add(a.Atomic(), b.Atomic())}
}

// WithFee returns the amount grossed up by a fee expressed in basis points,
// i.e. a * (10000 + feeBps) / 10000. The division is exact for any amount
// because atomic units carry 18 decimals.
//
// Example: WithFee(10) on "0.5" yields "0.5005" (0.1% fee).
func (a Amount) WithFee(feeBps int64) Amount {
	total := new(big.Int).Mul(a.Atomic(), big.NewInt(10000+feeBps))
	total.Quo(total, big.NewInt(10000))
	return Amount{atomic: total}
}

// ToMajor formats the amount as a decimal EGLD string with trailing zeros
// trimmed, e.g. 500500000000000000 atomic -> "0.5005".
func (a Amount) ToMajor() string {
	atomic := a.Atomic()

	neg := atomic.Sign() < 0
	if neg {
		atomic.Neg(atomic)
	}

	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(atomic, atomicPerEGLD, frac)

	out := whole.String()
	if frac.Sign() != 0 {
		digits := strings.TrimRight(fmt.Sprintf("%018s", frac.String()), "0")
		out += "." + digits
	}
	if neg {
		out = "-" + out
	}
	return out
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	return a.ToMajor()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
