/*
Package policy maps a company's hybrid-work policy to a number of required
in-office days.

FORMULA:
  requiredDays = ceil(workingDays * requiredPercentage)

  The multiplication is done in decimal so that e.g. 21 * 0.5 = 10.5 rounds up
  to exactly 11 with no floating-point drift.

PERCENTAGES:
  hybrid50   50%        fullOffice  100%
  hybrid40   40%        fullRemote    0%
  hybrid60   60%        custom      customPercentage / 100

EXAMPLE:
  p := policy.CompanyPolicy{Type: policy.Hybrid50}
  policy.RequiredDays(21, p) // 11
*/
package policy

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Type identifies a hybrid-work policy.
type Type string

const (
	Hybrid50   Type = "hybrid50"
	Hybrid40   Type = "hybrid40"
	Hybrid60   Type = "hybrid60"
	FullOffice Type = "fullOffice"
	FullRemote Type = "fullRemote"
	Custom     Type = "custom"
)

// Types lists every policy type in display order.
func Types() []Type {
	return []Type{Hybrid50, Hybrid40, Hybrid60, FullOffice, FullRemote, Custom}
}

// Valid reports whether t is a known policy type.
func (t Type) Valid() bool {
	switch t {
	case Hybrid50, Hybrid40, Hybrid60, FullOffice, FullRemote, Custom:
		return true
	}
	return false
}

func (t Type) DisplayName() string {
	switch t {
	case Hybrid50:
		return "Hybrid (50%)"
	case Hybrid40:
		return "Hybrid (40%)"
	case Hybrid60:
		return "Hybrid (60%)"
	case FullOffice:
		return "Full Office"
	case FullRemote:
		return "Full Remote"
	case Custom:
		return "Custom"
	default:
		return string(t)
	}
}

// CompanyPolicy is a policy type plus the percentage used by Custom.
type CompanyPolicy struct {
	Type             Type `json:"policyType"`
	CustomPercentage int  `json:"customPercentage"`
}

// Default is the policy applied when settings carry none.
func Default() CompanyPolicy {
	return CompanyPolicy{Type: Hybrid50, CustomPercentage: 50}
}

// Normalize maps unknown types to Hybrid50 and clamps CustomPercentage to [0, 100].
func (p CompanyPolicy) Normalize() CompanyPolicy {
	if !p.Type.Valid() {
		p.Type = Hybrid50
	}
	p.CustomPercentage = max(0, min(100, p.CustomPercentage))
	return p
}

// UnmarshalJSON normalizes on decode so a stored policy can never carry an
// out-of-range percentage.
func (p *CompanyPolicy) UnmarshalJSON(b []byte) error {
	type raw CompanyPolicy
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*p = CompanyPolicy(r).Normalize()
	return nil
}

var hundred = decimal.NewFromInt(100)

// RequiredPercentage returns the required in-office share in [0, 1].
func (p CompanyPolicy) RequiredPercentage() decimal.Decimal {
	switch p.Type {
	case Hybrid50:
		return decimal.RequireFromString("0.5")
	case Hybrid40:
		return decimal.RequireFromString("0.4")
	case Hybrid60:
		return decimal.RequireFromString("0.6")
	case FullOffice:
		return decimal.NewFromInt(1)
	case FullRemote:
		return decimal.Zero
	case Custom:
		pct := max(0, min(100, p.CustomPercentage))
		return decimal.NewFromInt(int64(pct)).Div(hundred)
	default:
		return decimal.RequireFromString("0.5")
	}
}

// RequiredDays returns ceil(workingDays * RequiredPercentage()). Negative
// workingDays are treated as zero.
func RequiredDays(workingDays int, p CompanyPolicy) int {
	if workingDays <= 0 {
		return 0
	}
	required := decimal.NewFromInt(int64(workingDays)).Mul(p.RequiredPercentage()).Ceil()
	return int(required.IntPart())
}
