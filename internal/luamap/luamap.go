// Package luamap runs a user Lua snippet over each fetched transaction.
//
// The snippet sees the transaction as the global table tx. Returning a table
// overrides the fields it names, returning true keeps the transaction as is,
// and returning nil or false drops it. A bare expression is accepted in place
// of a chunk with an explicit return.
package luamap

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/flarebyte/bankpull/internal/transaction"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

const (
	chunkName          = "map"
	DefaultTimeoutMs   = 200
	timeoutViolation   = "sandbox timeout"
	returnTypeMismatch = "script must return a table, a boolean or nil"
)

// Options tune the sandbox.
type Options struct {
	// TimeoutMs bounds each script run. Zero means DefaultTimeoutMs and a
	// negative value disables the limit.
	TimeoutMs int
}

// Mapper holds a compiled script.
type Mapper struct {
	proto   *lua.FunctionProto
	timeout time.Duration
}

// New compiles code.
func New(code string, opts Options) (*Mapper, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("lua map: empty script")
	}
	if !containsReturn(code) {
		code = "return (" + code + ")"
	}
	chunk, err := parse.Parse(strings.NewReader(code), chunkName)
	if err != nil {
		return nil, fmt.Errorf("lua map: %w", err)
	}
	proto, err := lua.Compile(chunk, chunkName)
	if err != nil {
		return nil, fmt.Errorf("lua map: %w", err)
	}
	ms := opts.TimeoutMs
	if ms == 0 {
		ms = DefaultTimeoutMs
	}
	m := &Mapper{proto: proto}
	if ms > 0 {
		m.timeout = time.Duration(ms) * time.Millisecond
	}
	return m, nil
}

// Apply runs the script once per transaction and returns the kept ones in
// their original order.
func (m *Mapper) Apply(ctx context.Context, txs []transaction.Transaction) ([]transaction.Transaction, error) {
	out := make([]transaction.Transaction, 0, len(txs))
	for i, tx := range txs {
		mapped, keep, err := m.run(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("lua map: transaction %d: %w", i, err)
		}
		if keep {
			out = append(out, mapped)
		}
	}
	return out, nil
}

func (m *Mapper) run(parent context.Context, tx transaction.Transaction) (transaction.Transaction, bool, error) {
	L := newSandboxState(seedFor(tx))
	defer L.Close()

	ctx := parent
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, m.timeout)
		defer cancel()
	}
	L.SetContext(ctx)
	L.SetGlobal("tx", toLValue(L, txToMap(tx)))

	L.Push(L.NewFunctionFromProto(m.proto))
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(err) {
			return tx, false, errors.New(timeoutViolation)
		}
		return tx, false, err
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch ret.Type() {
	case lua.LTNil:
		return tx, false, nil
	case lua.LTBool:
		return tx, lua.LVAsBool(ret), nil
	case lua.LTTable:
		fields, ok := fromLValue(ret).(map[string]any)
		if !ok {
			return tx, false, errors.New(returnTypeMismatch)
		}
		updated, err := override(tx, fields)
		return updated, err == nil, err
	default:
		return tx, false, errors.New(returnTypeMismatch)
	}
}

// newSandboxState opens the base, string, table and math libraries only.
// math.random is seeded per transaction so reruns are reproducible.
func newSandboxState(seed int64) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openLib := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	openLib("base", lua.OpenBase)
	openLib("string", lua.OpenString)
	openLib("table", lua.OpenTable)
	openLib("math", lua.OpenMath)
	// The base library still exposes file loaders.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	installDeterministicRandom(L, seed)
	return L
}

func seedFor(tx transaction.Transaction) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tx.Date))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(tx.Label))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(tx.Amount.String()))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

func installDeterministicRandom(L *lua.LState, seed int64) {
	mathTbl, ok := L.GetGlobal("math").(*lua.LTable)
	if !ok || mathTbl == nil {
		return
	}
	rng := rand.New(rand.NewSource(seed))
	mathTbl.RawSetString("random", L.NewFunction(func(L *lua.LState) int {
		switch L.GetTop() {
		case 0:
			L.Push(lua.LNumber(rng.Float64()))
			return 1
		case 1:
			hi := L.CheckInt(1)
			if hi < 1 {
				L.ArgError(1, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi) + 1))
			return 1
		default:
			lo := L.CheckInt(1)
			hi := L.CheckInt(2)
			if hi < lo {
				L.ArgError(2, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi-lo+1) + lo))
			return 1
		}
	}))
	mathTbl.RawSetString("randomseed", L.NewFunction(func(L *lua.LState) int { return 0 }))
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline") || strings.Contains(msg, "context canceled")
}

func containsReturn(s string) bool {
	return strings.Contains(s, "return")
}
