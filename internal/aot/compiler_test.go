package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/leb128"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// i32BinOpModule builds a single-function module computing `(local.get 0)
// op (local.get 1)`, where op is the raw opcode byte sequence appended
// between the two local.get instructions (e.g. just wasm.OpcodeI32Add).
func i32BinOpModule(op wasm.Opcode) *wasm.Module {
	body := []byte{
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeLocalGet), 0x01,
		byte(op),
		byte(wasm.OpcodeEnd),
	}
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{{
			Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []wasm.Code{{Body: body}},
	}
}

func compileAndInstantiate(t *testing.T, m *wasm.Module) (*CompiledModule, *ExecCtx) {
	t.Helper()
	c := NewCompiler(WithGasMetering(false))
	cm, err := c.Compile(m, nil)
	require.NoError(t, err)
	ec, err := cm.Instantiate(0, nil)
	require.NoError(t, err)
	return cm, ec
}

func TestCompile_I32Add(t *testing.T) {
	m := i32BinOpModule(wasm.OpcodeI32Add)
	cm, ec := compileAndInstantiate(t, m)

	ex := cm.Target.ResolveDirect(0)
	require.NotNil(t, ex)

	res := ex.Invoke([]uint64{7, 35}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{42}, res.Values)
}

func TestCompile_I32DivS_IntegerOverflowTraps(t *testing.T) {
	// div_s INT_MIN -1 must trap IntegerOverflow rather than wrap, per the
	// testable property that distinguishes it from rem_s's saturating 0.
	m := i32BinOpModule(wasm.OpcodeI32DivS)
	cm, ec := compileAndInstantiate(t, m)

	ex := cm.Target.ResolveDirect(0)
	res := ex.Invoke([]uint64{uint64(uint32(1 << 31)), uint64(uint32(int32(-1)))}, ec)

	require.True(t, res.Trapped)
	require.Equal(t, aotapi.TrapCodeIntegerOverflow, res.Trap)
}

func TestCompile_I32RemS_IntMinNegOneSaturatesToZero(t *testing.T) {
	m := i32BinOpModule(wasm.OpcodeI32RemS)
	cm, ec := compileAndInstantiate(t, m)

	ex := cm.Target.ResolveDirect(0)
	res := ex.Invoke([]uint64{uint64(uint32(1 << 31)), uint64(uint32(int32(-1)))}, ec)

	require.False(t, res.Trapped)
	require.Equal(t, []uint64{0}, res.Values)
}

func TestCompile_I32DivS_ByZeroTraps(t *testing.T) {
	m := i32BinOpModule(wasm.OpcodeI32DivS)
	cm, ec := compileAndInstantiate(t, m)

	ex := cm.Target.ResolveDirect(0)
	res := ex.Invoke([]uint64{1, 0}, ec)

	require.True(t, res.Trapped)
	require.Equal(t, aotapi.TrapCodeDivideByZero, res.Trap)
}

// memoryEchoModule builds a module with one memory and a function that
// stores its i32 argument at address 0 then loads it back, exercising
// memory access lowering (§4.2.3) end to end.
func memoryEchoModule() *wasm.Module {
	body := []byte{
		byte(wasm.OpcodeI32Const), 0x00, // address 0
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeI32Store), 0x02, 0x00, // align=2, offset=0
		byte(wasm.OpcodeI32Const), 0x00,
		byte(wasm.OpcodeI32Load), 0x02, 0x00,
		byte(wasm.OpcodeEnd),
	}
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []wasm.Code{{Body: body}},
		MemorySection:   []wasm.Memory{{Min: 1}},
	}
}

func TestCompile_MemoryStoreLoadRoundTrip(t *testing.T) {
	m := memoryEchoModule()
	cm, ec := compileAndInstantiate(t, m)

	ex := cm.Target.ResolveDirect(0)
	res := ex.Invoke([]uint64{12345}, ec)

	require.False(t, res.Trapped)
	require.Equal(t, []uint64{12345}, res.Values)
}

// callModule builds a two-function module where function 1 calls function 0
// (which doubles its argument) and adds one, exercising direct-call lowering
// (§4.2.5).
func callModule() *wasm.Module {
	doubleBody := []byte{
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeI32Add),
		byte(wasm.OpcodeEnd),
	}
	callerBody := []byte{
		byte(wasm.OpcodeLocalGet), 0x00,
	}
	callerBody = append(callerBody, byte(wasm.OpcodeCall))
	callerBody = append(callerBody, leb128.EncodeUint32(0)...)
	callerBody = append(callerBody,
		byte(wasm.OpcodeI32Const), 0x01,
		byte(wasm.OpcodeI32Add),
		byte(wasm.OpcodeEnd),
	)
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		FunctionSection: []wasm.Index{0, 0},
		CodeSection: []wasm.Code{
			{Body: doubleBody},
			{Body: callerBody},
		},
	}
}

func TestCompile_DirectCall(t *testing.T) {
	m := callModule()
	cm, ec := compileAndInstantiate(t, m)

	ex := cm.Target.ResolveDirect(1)
	res := ex.Invoke([]uint64{10}, ec)

	require.False(t, res.Trapped)
	require.Equal(t, []uint64{21}, res.Values) // 10*2 + 1
}

func TestCompile_StartFunctionWired(t *testing.T) {
	m := i32BinOpModule(wasm.OpcodeI32Add)
	start := wasm.Index(0)
	m.StartFunction = &start

	c := NewCompiler()
	cm, err := c.Compile(m, nil)
	require.NoError(t, err)
	require.NotNil(t, cm.EntryPoint)
}

func TestCompile_HostImportWiredAndInvoked(t *testing.T) {
	m := &wasm.Module{
		TypeSection: []wasm.FunctionType{{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		ImportSection: []wasm.Import{
			{Module: "env", Name: "double", Type: wasm.ExternTypeFunc, DescFunc: 0},
		},
		NumImportedFunctions: 1,
	}

	imports := HostImports{
		"env": {
			"double": func(args []uint64) ([]uint64, aotapi.TrapCode) {
				return []uint64{args[0] * 2}, 0
			},
		},
	}

	c := NewCompiler()
	cm, err := c.Compile(m, imports)
	require.NoError(t, err)
	ec, err := cm.Instantiate(0, nil)
	require.NoError(t, err)

	ex := cm.Target.ResolveDirect(0)
	res := ex.Invoke([]uint64{21}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{42}, res.Values)
}

func TestCompile_MissingHostImportTrapsHostFuncError(t *testing.T) {
	m := &wasm.Module{
		TypeSection: []wasm.FunctionType{{
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		ImportSection: []wasm.Import{
			{Module: "env", Name: "missing", Type: wasm.ExternTypeFunc, DescFunc: 0},
		},
		NumImportedFunctions: 1,
	}

	c := NewCompiler()
	cm, err := c.Compile(m, nil)
	require.NoError(t, err)
	ec, err := cm.Instantiate(0, nil)
	require.NoError(t, err)

	ex := cm.Target.ResolveDirect(0)
	res := ex.Invoke(nil, ec)
	require.True(t, res.Trapped)
	require.Equal(t, aotapi.TrapCodeHostFuncError, res.Trap)
}
