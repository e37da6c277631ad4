package luamap

import (
	"fmt"
	"strconv"

	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/shopspring/decimal"
	lua "github.com/yuin/gopher-lua"
)

func txToMap(tx transaction.Transaction) map[string]any {
	m := map[string]any{
		"date":   tx.Date,
		"amount": tx.Amount.InexactFloat64(),
		"label":  tx.Label,
	}
	if tx.RawLabel != nil {
		m["raw_label"] = *tx.RawLabel
	}
	if tx.Category != nil {
		m["category"] = *tx.Category
	}
	if tx.ID != nil {
		m["id"] = *tx.ID
	}
	return m
}

// override applies the fields returned by a script. Keys set to nil in Lua
// are absent from fields and leave the value untouched; an empty string
// clears an optional field.
func override(tx transaction.Transaction, fields map[string]any) (transaction.Transaction, error) {
	for k, v := range fields {
		switch k {
		case "date":
			s, ok := v.(string)
			if !ok {
				return tx, fmt.Errorf("field %q must be a string", k)
			}
			tx.Date = s
		case "label":
			s, ok := v.(string)
			if !ok {
				return tx, fmt.Errorf("field %q must be a string", k)
			}
			tx.Label = s
		case "raw_label", "category", "id":
			s, ok := v.(string)
			if !ok {
				return tx, fmt.Errorf("field %q must be a string", k)
			}
			p := transaction.StringPtr(s)
			switch k {
			case "raw_label":
				tx.RawLabel = p
			case "category":
				tx.Category = p
			default:
				tx.ID = p
			}
		case "amount":
			d, err := toDecimal(v)
			if err != nil {
				return tx, err
			}
			// Unchanged floats keep the exact decimal.
			if f, ok := v.(float64); ok && f == tx.Amount.InexactFloat64() {
				continue
			}
			tx.Amount = d
		}
	}
	return tx, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("field \"amount\": %w", err)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("field \"amount\" must be a number, got %T", v)
	}
}

// toLValue converts a Go value to a Lua value.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(float64(x))
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// fromLValue converts a Lua value back to Go. Tables with keys 1..n become
// slices; any other table becomes a map keyed by the string form of its keys.
func fromLValue(v lua.LValue) any {
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTBool:
		return lua.LVAsBool(v)
	case lua.LTNumber:
		return float64(v.(lua.LNumber))
	case lua.LTString:
		return v.String()
	case lua.LTTable:
		t := v.(*lua.LTable)
		arr := []any{}
		isArray := true
		t.ForEach(func(k, val lua.LValue) {
			if !isArray {
				return
			}
			if lk, ok := k.(lua.LNumber); ok && int(lk) == len(arr)+1 {
				arr = append(arr, fromLValue(val))
			} else {
				isArray = false
			}
		})
		if isArray && len(arr) > 0 {
			return arr
		}
		obj := map[string]any{}
		t.ForEach(func(k, val lua.LValue) {
			if lk, ok := k.(lua.LNumber); ok {
				obj[strconv.FormatFloat(float64(lk), 'f', -1, 64)] = fromLValue(val)
				return
			}
			obj[k.String()] = fromLValue(val)
		})
		return obj
	default:
		return nil
	}
}
