package x86_64

// The mnemonic table below is the external collaborator the core encoder
// (encoder.go, prefix.go, addressing.go, immediates.go) is built to
// consume: each MnemonicForm carries an operand-type pattern used to pick
// a form and a MnemonicDefinitionSignature used to drive Session.Encode.
// Forms are grouped the way the original table grouped them, and every
// form previously left as a commented-out placeholder has been completed.
var (
	//
	// Data Movement Instructions
	//

	MOV = Instruction{
		Mnemonic: "MOV",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8, OperandReg8}, Signature: signature(0, 0x88)},
			{Operands: []OperandType{OperandReg16, OperandReg16}, Signature: signature(0, 0x89), DefaultOptions: EncodeOptions{OperandSizeOverrideNeeded: true}},
			{Operands: []OperandType{OperandReg32, OperandReg32}, Signature: signature(0, 0x89)},
			{Operands: []OperandType{OperandReg64, OperandReg64}, Signature: signature(0, 0x89), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
			{Operands: []OperandType{OperandReg8, OperandMem}, Signature: signature(0, 0x8A)},
			{Operands: []OperandType{OperandReg32, OperandMem}, Signature: signature(0, 0x8B)},
			{Operands: []OperandType{OperandReg64, OperandMem}, Signature: signature(0, 0x8B), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
			{Operands: []OperandType{OperandMem, OperandReg8}, Signature: signature(0, 0x88)},
			{Operands: []OperandType{OperandMem, OperandReg32}, Signature: signature(0, 0x89)},
			{Operands: []OperandType{OperandMem, OperandReg64}, Signature: signature(0, 0x89), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
			{Operands: []OperandType{OperandReg8, OperandImm8}, Signature: signature(FlagShortArg, 0xB0)},
			{Operands: []OperandType{OperandReg32, OperandImm32}, Signature: signature(FlagShortArg, 0xB8)},
			{Operands: []OperandType{OperandReg64, OperandImm64}, Signature: signature(FlagShortArg, 0xB8), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}

	MOVZX = Instruction{
		Mnemonic: "MOVZX",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg32, OperandReg8}, Signature: signature(0, 0x0F, 0xB6)},
			{Operands: []OperandType{OperandReg32, OperandReg16}, Signature: signature(0, 0x0F, 0xB7)},
		},
	}

	MOVSX = Instruction{
		Mnemonic: "MOVSX",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg32, OperandReg8}, Signature: signature(0, 0x0F, 0xBE)},
			{Operands: []OperandType{OperandReg32, OperandReg16}, Signature: signature(0, 0x0F, 0xBF)},
		},
	}

	// LEA r64, [rip+disp32] exercises the RIP-relative addressing
	// sub-encoder; the base operand supplied at call time is the RIP
	// pseudo-register.
	LEA = Instruction{
		Mnemonic: "LEA",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg32, OperandMem}, Signature: signature(0, 0x8D)},
			{Operands: []OperandType{OperandReg64, OperandMem}, Signature: signature(0, 0x8D), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}

	PUSH = Instruction{
		Mnemonic: "PUSH",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg64}, Signature: signature(FlagShortArg, 0x50)},
			{Operands: []OperandType{OperandImm8}, Signature: signature(0, 0x6A)},
			{Operands: []OperandType{OperandImm32}, Signature: signature(0, 0x68)},
			{Operands: []OperandType{OperandMem}, Signature: digitSignature(6, 0, 0xFF), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}

	POP = Instruction{
		Mnemonic: "POP",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg64}, Signature: signature(FlagShortArg, 0x58)},
		},
	}

	XCHG = Instruction{
		Mnemonic: "XCHG",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8, OperandReg8}, Signature: signature(0, 0x86)},
			{Operands: []OperandType{OperandReg32, OperandReg32}, Signature: signature(0, 0x87)},
			{Operands: []OperandType{OperandReg64, OperandReg64}, Signature: signature(0, 0x87), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}

	//
	// Arithmetic Instructions
	//

	ADD = arithmeticFamily("ADD", 0x00, 0x01, 0)
	SUB = arithmeticFamily("SUB", 0x28, 0x29, 5)
	CMP = arithmeticFamily("CMP", 0x38, 0x39, 7)

	MUL  = unaryF7Family("MUL", 4)
	IMUL = Instruction{
		Mnemonic: "IMUL",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg32}, Signature: digitSignature(5, 0, 0xF7)},
			{Operands: []OperandType{OperandReg32, OperandReg32}, Signature: signature(0, 0x0F, 0xAF)},
			{Operands: []OperandType{OperandReg64, OperandReg64}, Signature: signature(0, 0x0F, 0xAF), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}
	DIV  = unaryF7Family("DIV", 6)
	IDIV = unaryF7Family("IDIV", 7)
	INC  = unaryFEFFFamily("INC", 0)
	DEC  = unaryFEFFFamily("DEC", 1)
	NEG  = unaryF7Family("NEG", 3)

	//
	// Logical Instructions
	//

	AND = arithmeticFamily("AND", 0x20, 0x21, 4)
	OR  = arithmeticFamily("OR", 0x08, 0x09, 1)
	XOR = arithmeticFamily("XOR", 0x30, 0x31, 6)
	NOT = unaryF7Family("NOT", 2)

	TEST = Instruction{
		Mnemonic: "TEST",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8, OperandReg8}, Signature: signature(0, 0x84)},
			{Operands: []OperandType{OperandReg32, OperandReg32}, Signature: signature(0, 0x85)},
			{Operands: []OperandType{OperandReg64, OperandReg64}, Signature: signature(0, 0x85), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}

	//
	// Shift and Rotate Instructions
	//

	SHL = shiftFamily("SHL", 4)
	SHR = shiftFamily("SHR", 5)
	SAR = shiftFamily("SAR", 7)
	ROL = shiftFamily("ROL", 0)
	ROR = shiftFamily("ROR", 1)

	//
	// Control Flow Instructions
	//

	// JMP rel8/rel32 take their target as a trailing JumpTarget operand,
	// emitted as a zero placeholder plus a relocation; JMP r/m64 is an
	// ordinary ModR/M indirect form.
	JMP = Instruction{
		Mnemonic: "JMP",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandRel8}, Signature: signature(0, 0xEB)},
			{Operands: []OperandType{OperandRel32}, Signature: signature(0, 0xE9)},
			{Operands: []OperandType{OperandReg64}, Signature: digitSignature(4, 0, 0xFF)},
		},
	}

	JE  = conditionalJumpFamily("JE", 0x74, 0x84)
	JNE = conditionalJumpFamily("JNE", 0x75, 0x85)
	JG  = conditionalJumpFamily("JG", 0x7F, 0x8F)
	JGE = conditionalJumpFamily("JGE", 0x7D, 0x8D)
	JL  = conditionalJumpFamily("JL", 0x7C, 0x8C)
	JLE = conditionalJumpFamily("JLE", 0x7E, 0x8E)
	JA  = conditionalJumpFamily("JA", 0x77, 0x87)
	JAE = conditionalJumpFamily("JAE", 0x73, 0x83)
	JB  = conditionalJumpFamily("JB", 0x72, 0x82)
	JBE = conditionalJumpFamily("JBE", 0x76, 0x86)

	CALL = Instruction{
		Mnemonic: "CALL",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandRel32}, Signature: signature(0, 0xE8)},
			{Operands: []OperandType{OperandReg64}, Signature: digitSignature(2, 0, 0xFF)},
		},
	}

	RET = Instruction{
		Mnemonic: "RET",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandNone}, Signature: signature(0, 0xC3)},
			{Operands: []OperandType{OperandImm16}, Signature: signature(0, 0xC2)},
		},
	}

	//
	// Miscellaneous Instructions
	//

	NOP     = nullaryInstruction("NOP", 0x90)
	HLT     = nullaryInstruction("HLT", 0xF4)
	SYSCALL = nullaryInstruction("SYSCALL", 0x0F, 0x05)
	SYSRET  = nullaryInstruction("SYSRET", 0x0F, 0x07)
	IRET    = nullaryInstruction("IRET", 0xCF)
	CPUID   = nullaryInstruction("CPUID", 0x0F, 0xA2)
	RDTSC   = nullaryInstruction("RDTSC", 0x0F, 0x31)

	INT = Instruction{
		Mnemonic: "INT",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandImm8}, Signature: signature(0, 0xCD)},
		},
	}

	//
	// VEX / XOP vector instructions
	//
	// These exist to exercise the prefix encoder's VEX and XOP branches
	// (see prefix.go), including both the 2-byte shortcut and the 3-byte
	// forced form, and the is4-style register-in-immediate path (see
	// immediates.go).

	// VADDPS xmm, xmm, xmm selects the 2-byte VEX shortcut: map_sel=1
	// (implied 0F), W=0, no index/base extension.
	VADDPS = Instruction{
		Mnemonic: "VADDPS",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg128, OperandReg128, OperandReg128}, Signature: signature(FlagVexOp, 0x01, 0x58)},
		},
	}

	// VPERM2F128 ymm, ymm, ymm, imm8 carries a trailing immediate after a
	// 3-byte VEX (map_sel=3, implied 0F 3A with a 66 prefix), forcing the
	// long form because the opcode map is not 1.
	VPERM2F128 = Instruction{
		Mnemonic: "VPERM2F128",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg256, OperandReg256, OperandReg256, OperandImm8}, Signature: signature(FlagVexOp, 0x03, 0x06), DefaultOptions: EncodeOptions{OperandSizeOverrideNeeded: true, VexLNeeded: true}},
		},
	}

	// VPCMOV is an AMD XOP instruction carrying a register-in-immediate
	// selector byte, exercising the XOP prefix lead (0x8F) and the is4
	// emission path together.
	VPCMOV = Instruction{
		Mnemonic: "VPCMOV",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg128, OperandReg128, OperandReg128, OperandReg128}, Signature: signature(FlagXopOp|FlagRegisterInImmediate, 0x08, 0xA2)},
		},
	}

	// VGATHERDPS exercises the VSIB addressing sub-encoder: its memory
	// operand's index is a vector register. map_sel=2 (implied 0F 38)
	// with a 66 prefix.
	VGATHERDPS = Instruction{
		Mnemonic: "VGATHERDPS",
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg128, OperandMem, OperandReg128}, Signature: signature(FlagVexOp, 0x02, 0x92), DefaultOptions: EncodeOptions{OperandSizeOverrideNeeded: true}},
		},
	}
)

// InstructionsByMnemonic is a map for looking up instructions by their
// mnemonic, the lookup root for the CLI's line resolver.
var InstructionsByMnemonic = map[string]Instruction{
	"MOV": MOV, "MOVZX": MOVZX, "MOVSX": MOVSX, "LEA": LEA,
	"PUSH": PUSH, "POP": POP, "XCHG": XCHG,

	"ADD": ADD, "SUB": SUB, "MUL": MUL, "IMUL": IMUL, "DIV": DIV, "IDIV": IDIV,
	"INC": INC, "DEC": DEC, "NEG": NEG, "CMP": CMP,

	"AND": AND, "OR": OR, "XOR": XOR, "NOT": NOT, "TEST": TEST,

	"SHL": SHL, "SHR": SHR, "SAR": SAR, "ROL": ROL, "ROR": ROR,

	"JMP": JMP, "JE": JE, "JNE": JNE, "JG": JG, "JGE": JGE, "JL": JL, "JLE": JLE,
	"JA": JA, "JAE": JAE, "JB": JB, "JBE": JBE, "CALL": CALL, "RET": RET,

	"NOP": NOP, "HLT": HLT, "SYSCALL": SYSCALL, "SYSRET": SYSRET,
	"INT": INT, "IRET": IRET, "CPUID": CPUID, "RDTSC": RDTSC,

	"VADDPS": VADDPS, "VPERM2F128": VPERM2F128, "VPCMOV": VPCMOV, "VGATHERDPS": VGATHERDPS,
}

func nullaryInstruction(mnemonic string, opcode ...byte) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Forms:    []MnemonicForm{{Operands: []OperandType{OperandNone}, Signature: signature(0, opcode...)}},
	}
}

// arithmeticFamily builds the common r8,r8 / r32,r32 / r64,r64 /
// r32,imm32 / r64,imm32 shape shared by ADD/SUB/AND/OR/XOR/CMP, whose
// accumulator-form opcodes differ only in their byte8/byte32 pair and
// their /digit extension for the immediate forms.
func arithmeticFamily(mnemonic string, opcode8, opcode32 byte, digit byte) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8, OperandReg8}, Signature: signature(0, opcode8)},
			{Operands: []OperandType{OperandReg32, OperandReg32}, Signature: signature(0, opcode32)},
			{Operands: []OperandType{OperandReg64, OperandReg64}, Signature: signature(0, opcode32), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
			{Operands: []OperandType{OperandReg32, OperandImm32}, Signature: digitSignature(digit, 0, 0x81)},
			{Operands: []OperandType{OperandReg64, OperandImm32}, Signature: digitSignature(digit, 0, 0x81), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}
}

// unaryF7Family builds the F6/F7 opcode-extension group shared by
// MUL/IMUL/DIV/IDIV/NOT/NEG.
func unaryF7Family(mnemonic string, digit byte) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8}, Signature: digitSignature(digit, 0, 0xF6)},
			{Operands: []OperandType{OperandReg32}, Signature: digitSignature(digit, 0, 0xF7)},
			{Operands: []OperandType{OperandReg64}, Signature: digitSignature(digit, 0, 0xF7), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}
}

// unaryFEFFFamily builds the FE/FF opcode-extension group shared by
// INC/DEC.
func unaryFEFFFamily(mnemonic string, digit byte) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8}, Signature: digitSignature(digit, 0, 0xFE)},
			{Operands: []OperandType{OperandReg32}, Signature: digitSignature(digit, 0, 0xFF)},
			{Operands: []OperandType{OperandReg64}, Signature: digitSignature(digit, 0, 0xFF), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}
}

// shiftFamily builds the C0/C1 opcode-extension group shared by
// SHL/SHR/SAR/ROL/ROR.
func shiftFamily(mnemonic string, digit byte) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandReg8, OperandImm8}, Signature: digitSignature(digit, 0, 0xC0)},
			{Operands: []OperandType{OperandReg32, OperandImm8}, Signature: digitSignature(digit, 0, 0xC1)},
			{Operands: []OperandType{OperandReg64, OperandImm8}, Signature: digitSignature(digit, 0, 0xC1), DefaultOptions: EncodeOptions{REXNeeded: true, REXWNeeded: true}},
		},
	}
}

// conditionalJumpFamily builds the rel8/rel32 pair shared by every Jcc
// mnemonic.
func conditionalJumpFamily(mnemonic string, rel8Opcode, rel32SecondByte byte) Instruction {
	return Instruction{
		Mnemonic: mnemonic,
		Forms: []MnemonicForm{
			{Operands: []OperandType{OperandRel8}, Signature: signature(0, rel8Opcode)},
			{Operands: []OperandType{OperandRel32}, Signature: signature(0, 0x0F, rel32SecondByte)},
		},
	}
}
