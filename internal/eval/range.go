package eval

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/tri"
	"github.com/zclconf/go-cty/cty"
)

// validateRange checks an int/hex symbol's current value against the first
// "range" line whose condition is satisfied, clamping out-of-range values
// to the nearest bound and emitting a warning diagnostic, mirroring the
// teacher's use of cty.Number/big.Float arithmetic for bounded numeric
// values (internal/dag/utils.go's "count" expression handling).
func validateRange(e *kconf.MenuEntry) hcl.Diagnostics {
	if e.ValueType != kconf.TypeInt && e.ValueType != kconf.TypeHex {
		return nil
	}
	if e.Value() == "" {
		return nil
	}

	var diags hcl.Diagnostics
	for _, r := range e.Ranges {
		if r.Cond != nil && r.Cond.Calculate() == tri.N {
			continue
		}
		val, err := parseNumber(e.ValueType, e.Value())
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "invalid numeric value",
				Detail:   fmt.Sprintf("%s: %v", e.Name(), err),
				Subject:  &hcl.Range{Filename: r.Pos.Filename, Start: r.Pos, End: r.Pos},
			})
			return diags
		}
		min, errMin := parseNumber(e.ValueType, r.Min)
		max, errMax := parseNumber(e.ValueType, r.Max)
		if errMin != nil || errMax != nil {
			continue
		}

		clamped := val
		outOfRange := false
		if val.LessThan(min).True() {
			clamped = min
			outOfRange = true
		} else if val.GreaterThan(max).True() {
			clamped = max
			outOfRange = true
		}
		if outOfRange {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "value out of range",
				Detail:   fmt.Sprintf("%s=%s is outside [%s, %s]; clamped", e.Name(), e.Value(), r.Min, r.Max),
				Subject:  &hcl.Range{Filename: r.Pos.Filename, Start: r.Pos, End: r.Pos},
			})
			e.SetValue(formatNumber(e.ValueType, clamped))
		}
		return diags
	}
	return diags
}

func parseNumber(t kconf.ValueType, s string) (cty.Value, error) {
	if s == "" {
		return cty.NilVal, fmt.Errorf("empty numeric literal")
	}
	if t == kconf.TypeHex {
		hexDigits := s
		if len(hexDigits) >= 2 && hexDigits[0] == '0' && (hexDigits[1] == 'x' || hexDigits[1] == 'X') {
			hexDigits = hexDigits[2:]
		}
		bi, ok := new(big.Int).SetString(hexDigits, 16)
		if !ok {
			return cty.NilVal, fmt.Errorf("invalid hex literal %q", s)
		}
		return cty.NumberVal(new(big.Float).SetInt(bi)), nil
	}
	return cty.ParseNumberVal(s)
}

func formatNumber(t kconf.ValueType, v cty.Value) string {
	bf := v.AsBigFloat()
	if t == kconf.TypeHex {
		bi, _ := bf.Int(nil)
		return fmt.Sprintf("0x%x", bi)
	}
	return bf.Text('f', -1)
}
