package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	dErrors "fundledger/pkg/domain-errors"
)

// Amount is a non-negative quantity of an asset in its smallest unit.
// It is a comparable value type; the zero value is zero.
type Amount struct {
	v uint256.Int
}

// ErrAmountOverflow is returned when arithmetic leaves the 256-bit range.
var ErrAmountOverflow = dErrors.New(dErrors.CodeInvariantViolation, "amount overflow")

// ErrAmountUnderflow is returned when a subtraction would go negative.
var ErrAmountUnderflow = dErrors.New(dErrors.CodeInvariantViolation, "amount underflow")

// NewAmount converts a uint64.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses a base-10 unsigned integer string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || !isDigits(s) {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be a non-negative decimal integer")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "amount out of range")
	}
	return Amount{v: *v}, nil
}

// MustAmount parses s and panics on failure. Intended for tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp returns -1, 0 or +1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) Add(b Amount) (Amount, error) {
	var r Amount
	if _, overflow := r.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrAmountOverflow
	}
	return r, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	var r Amount
	if _, underflow := r.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, ErrAmountUnderflow
	}
	return r, nil
}

// MulDiv returns a*num/den rounded down. den must be nonzero.
func (a Amount) MulDiv(num, den Amount) (Amount, error) {
	if den.IsZero() {
		return Amount{}, dErrors.New(dErrors.CodeInvariantViolation, "division by zero")
	}
	var r Amount
	if _, overflow := r.v.MulDivOverflow(&a.v, &num.v, &den.v); overflow {
		return Amount{}, ErrAmountOverflow
	}
	return r, nil
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// String renders the amount in base 10.
func (a Amount) String() string {
	return a.v.Dec()
}

// Uint64 returns the amount and whether it fits in 64 bits.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// Float64 returns the nearest float64. For metrics only; never account with it.
func (a Amount) Float64() float64 {
	return a.v.Float64()
}

// MarshalJSON encodes the amount as a decimal string so JSON clients never
// lose precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return fmt.Errorf("amount must not be null")
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as a decimal string (NUMERIC(78,0) columns).
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan reads NUMERIC/TEXT columns.
func (a *Amount) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		if v < 0 {
			return fmt.Errorf("scan amount: negative value %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	*a = parsed
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
