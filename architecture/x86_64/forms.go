package x86_64

// MnemonicForm pairs an operand-type pattern (the OperandType vocabulary
// defined in operands.go) with the concrete MnemonicDefinitionSignature the
// core encoder consumes to emit it.
type MnemonicForm struct {
	Operands       []OperandType
	Signature      MnemonicDefinitionSignature
	DefaultOptions EncodeOptions
}

// Instruction is a mnemonic together with its possible forms, with the same
// operand-type lookup cache the teacher's internal/asm.Instruction carried.
type Instruction struct {
	Mnemonic           string
	Forms              []MnemonicForm
	formsByOperandType map[string][]MnemonicForm
}

func (instr *Instruction) matchingForms(operandType OperandType) []MnemonicForm {
	var matched []MnemonicForm
	for _, form := range instr.Forms {
		for _, operand := range form.Operands {
			if operand.Identifier == operandType.Identifier {
				matched = append(matched, form)
				break
			}
		}
	}
	return matched
}

// Form retrieves the forms matching operandType, caching the result for
// subsequent lookups within the same assembly unit.
func (instr *Instruction) Form(operandType OperandType) []MnemonicForm {
	if instr.formsByOperandType == nil {
		instr.formsByOperandType = make(map[string][]MnemonicForm)
	}
	if cached, ok := instr.formsByOperandType[operandType.Identifier]; ok {
		return cached
	}

	matched := instr.matchingForms(operandType)
	instr.formsByOperandType[operandType.Identifier] = matched
	return matched
}

// signature builds a baseSignature value, the concrete
// MnemonicDefinitionSignature used throughout the mnemonic table in
// instructions.go.
func signature(flags InstructionFlags, opcode ...byte) baseSignature {
	return baseSignature{opcode: opcode, flags: flags}
}

func signatureWithLegacyPrefix(flags InstructionFlags, legacy byte, opcode ...byte) baseSignature {
	return baseSignature{opcode: opcode, flags: flags, legacyPrefix: legacy, hasLegacy: true}
}

// digitSignature builds a signature whose ModR/M reg field is always the
// fixed opcode-extension digit, regardless of any register operand.
func digitSignature(digit byte, flags InstructionFlags, opcode ...byte) baseSignature {
	d := digit
	return baseSignature{opcode: opcode, flags: flags, digit: &d}
}
