package x86_64

// Expression is a value to be emitted into the byte stream. It may be
// statically known at encode time (Known == true, Value holds it) or left to
// be resolved later by a linker/runtime, in which case Symbol names what
// resolves it and the encoder emits a zero placeholder plus a relocation.
type Expression struct {
	Value  int64
	Known  bool
	Symbol string
}

// KnownExpression builds a fully-resolved expression.
func KnownExpression(value int64) Expression {
	return Expression{Value: value, Known: true}
}

// SymbolExpression builds an expression deferred to a named symbol.
func SymbolExpression(symbol string) Expression {
	return Expression{Symbol: symbol}
}

// ScaledIndex describes the index component of an ordinary or VSIB memory
// reference: a register, its scale factor (1, 2, 4, or 8), and an optional
// ScaleByExpression. The addressing sub-encoders do not read
// ScaleByExpression; the SIB scale field always comes from Scale.
type ScaledIndex struct {
	Register         Register
	Scale            int
	ScaleByExpression *Expression
}

// EncodedScale maps {1,2,4,8} to the 2-bit SIB scale field.
func (s ScaledIndex) EncodedScale() byte {
	switch s.Scale {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 0
	}
}

// SizedMnemonicArgument is the closed set of operand shapes the core encoder
// consumes. Exactly one of the Is* predicates is true for any value produced
// by the constructors below.
type SizedMnemonicArgument struct {
	kind argumentKind

	// DirectRegisterReference
	register Register
	size     Size

	// IndirectMemoryReference
	displacementSize Size
	base             *Register
	index            *ScaledIndex
	displacement     *Expression

	// IndirectJumpTarget / JumpTarget
	jumpVariant JumpVariant
	jumpSize    Size
	jumpTarget  Expression

	// Immediate
	immediate Expression
}

type argumentKind int

const (
	kindDirectRegister argumentKind = iota
	kindIndirectMemory
	kindIndirectJumpTarget
	kindImmediate
	kindJumpTarget
)

// DirectRegisterReference builds an operand that is a bare register.
func DirectRegisterReference(reg Register, size Size) SizedMnemonicArgument {
	return SizedMnemonicArgument{kind: kindDirectRegister, register: reg, size: size}
}

// IndirectMemoryReference builds a memory operand. base and index may be
// left nil/unset for absolute or base-less forms.
func IndirectMemoryReference(base *Register, index *ScaledIndex, displacement *Expression, displacementSize Size) SizedMnemonicArgument {
	return SizedMnemonicArgument{
		kind:             kindIndirectMemory,
		base:             base,
		index:            index,
		displacement:     displacement,
		displacementSize: displacementSize,
	}
}

// IndirectJumpTarget builds a call/jmp-through-memory-style operand whose
// target is resolved via the jump-relative addressing form.
func IndirectJumpTarget(variant JumpVariant, size Size) SizedMnemonicArgument {
	return SizedMnemonicArgument{kind: kindIndirectJumpTarget, jumpVariant: variant, jumpSize: size}
}

// Immediate builds an immediate-value operand.
func Immediate(value Expression, size Size) SizedMnemonicArgument {
	return SizedMnemonicArgument{kind: kindImmediate, immediate: value, size: size}
}

// JumpTarget builds a direct jump/call target operand.
func JumpTarget(variant JumpVariant, target Expression, size Size) SizedMnemonicArgument {
	return SizedMnemonicArgument{kind: kindJumpTarget, jumpVariant: variant, jumpTarget: target, jumpSize: size}
}

func (a SizedMnemonicArgument) IsDirectRegisterReference() bool { return a.kind == kindDirectRegister }
func (a SizedMnemonicArgument) IsIndirectMemoryReference() bool { return a.kind == kindIndirectMemory }
func (a SizedMnemonicArgument) IsIndirectJumpTarget() bool      { return a.kind == kindIndirectJumpTarget }
func (a SizedMnemonicArgument) IsImmediate() bool               { return a.kind == kindImmediate }
func (a SizedMnemonicArgument) IsJumpTarget() bool              { return a.kind == kindJumpTarget }

// Register returns the direct register reference's register. Only valid
// when IsDirectRegisterReference is true.
func (a SizedMnemonicArgument) Register() Register { return a.register }

// Size returns the operand's declared size.
func (a SizedMnemonicArgument) Size() Size { return a.size }

// Base returns the memory reference's base register, or nil if absent.
func (a SizedMnemonicArgument) Base() *Register { return a.base }

// Index returns the memory reference's scaled index, or nil if absent.
func (a SizedMnemonicArgument) Index() *ScaledIndex { return a.index }

// Displacement returns the memory reference's displacement expression, or
// nil if none was supplied.
func (a SizedMnemonicArgument) Displacement() *Expression { return a.displacement }

// DisplacementSize returns the explicitly requested displacement width, or
// SizeNone if the encoder should choose based on MOD.
func (a SizedMnemonicArgument) DisplacementSize() Size { return a.displacementSize }

// JumpVariant returns the jump-target operand's variant.
func (a SizedMnemonicArgument) JumpVariant() JumpVariant { return a.jumpVariant }

// JumpTargetExpression returns the jump-target operand's expression.
func (a SizedMnemonicArgument) JumpTargetExpression() Expression { return a.jumpTarget }

// JumpSize returns the jump-target operand's encoded width.
func (a SizedMnemonicArgument) JumpSize() Size { return a.jumpSize }

// ImmediateExpression returns the immediate operand's expression.
func (a SizedMnemonicArgument) ImmediateExpression() Expression { return a.immediate }

// IsVSIBAddressing reports whether a memory reference's index register is a
// vector register, the condition that forces the VSIB sub-encoder.
func (a SizedMnemonicArgument) IsVSIBAddressing() bool {
	if a.index == nil {
		return false
	}
	t := a.index.Register.Type
	return t == RegisterXMM || t == RegisterYMM || t == RegisterZMM
}

// IsRIPRelative reports whether a memory reference's base is the RIP
// pseudo-register.
func (a SizedMnemonicArgument) IsRIPRelative() bool {
	return a.base != nil && a.base.IsRIP()
}
