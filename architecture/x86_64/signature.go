package x86_64

// InstructionFlags is a bitset of encoding-shape markers read by the prefix
// encoder and opcode emitter. VexOp and XopOp are mutually exclusive; at
// most one prefix-group flag may be set per signature.
type InstructionFlags uint16

const (
	// FlagVexOp marks a signature that must be encoded with a VEX prefix.
	FlagVexOp InstructionFlags = 1 << iota
	// FlagXopOp marks a signature that must be encoded with an XOP prefix.
	FlagXopOp
	// FlagShortArg marks a signature whose last opcode byte has a register
	// code embedded in its low 3 bits rather than relying on ModR/M.
	FlagShortArg
	// FlagRexW requests REX.W / VEX.W (64-bit operand size).
	FlagRexW
	// FlagVexL requests VEX.L / the 256-bit vector length.
	FlagVexL
	// FlagOperandSizeOverride requests the legacy 0x66 prefix.
	FlagOperandSizeOverride
	// FlagRegisterInImmediate marks a signature with a trailing is4-style
	// register-selector byte, as used by three-operand VEX blend/permute
	// forms.
	FlagRegisterInImmediate
)

// Contains reports whether all bits of other are set in f.
func (f InstructionFlags) Contains(other InstructionFlags) bool {
	return f&other == other
}

// Intersects reports whether f and other share any set bit.
func (f InstructionFlags) Intersects(other InstructionFlags) bool {
	return f&other != 0
}

// MnemonicDefinitionSignature is the capability surface the core encoder
// consumes to know how to encode one instruction form. Implementations are
// supplied by the mnemonic table (see forms.go); the core never inspects
// concrete instruction identity, only this interface.
type MnemonicDefinitionSignature interface {
	// ContainsFlags reports whether every flag bit in f is present.
	ContainsFlags(f InstructionFlags) bool
	// IntersectsFlags reports whether any flag bit in f is present.
	IntersectsFlags(f InstructionFlags) bool
	// OpcodeBytes returns the opcode byte sequence, before any short-arg
	// embedding or VEX/XOP map-selector splitting.
	OpcodeBytes() []byte
	// RegK returns the register to place in ModR/M's reg field for the
	// given operand, or RAX as the zero placeholder when reg is nil. The
	// VEX vvvv field is not derived from it; Session.Encode takes vvvv as a
	// separate argument.
	RegK(reg *Register) Register
	// LegacyPrefixModification returns an optional legacy prefix byte
	// (0xF2, 0xF3, a segment override, ...) to emit ahead of 0x66/REX, and
	// whether one was set.
	LegacyPrefixModification() (byte, bool)
}

// baseSignature is the concrete MnemonicDefinitionSignature implementation
// built by the helpers in forms.go and used by the mnemonic table in
// instructions.go.
type baseSignature struct {
	opcode       []byte
	flags        InstructionFlags
	legacyPrefix byte
	hasLegacy    bool

	// digit, when non-nil, is an opcode-extension digit (the classic "/n"
	// notation) that always occupies ModR/M's reg field regardless of any
	// register operand — used by accumulator-style forms like ADD r/m,
	// imm32 (/0) or the F7 group (MUL /4, NOT /2, ...).
	digit *byte
}

func (s baseSignature) ContainsFlags(f InstructionFlags) bool   { return InstructionFlags(s.flags).Contains(f) }
func (s baseSignature) IntersectsFlags(f InstructionFlags) bool { return InstructionFlags(s.flags).Intersects(f) }
func (s baseSignature) OpcodeBytes() []byte                     { return s.opcode }

func (s baseSignature) RegK(reg *Register) Register {
	if s.digit != nil {
		return Register{Name: "/digit", Encoding: *s.digit}
	}
	if reg == nil {
		return RAX
	}
	return *reg
}

func (s baseSignature) LegacyPrefixModification() (byte, bool) {
	return s.legacyPrefix, s.hasLegacy
}
