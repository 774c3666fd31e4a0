package x86_64

import (
	"regexp"
	"strconv"
	"strings"
)

// Assembler exposes the x86_64 domain's mnemonic/operand/register catalogs
// to callers (the CLI, diagnostics) that need to classify source text
// without driving the encoder directly.
type Assembler struct {
	rawSource string
}

// AssemblerNew - returns a new instance of the x86_64 assembler
func AssemblerNew(rawSource string) *Assembler {
	return &Assembler{
		rawSource: rawSource,
	}
}

// New is an alias for AssemblerNew kept for callers that construct the
// assembler without any source text up front (operand/instruction lookups
// do not depend on rawSource).
func New(rawSource string) *Assembler {
	return AssemblerNew(rawSource)
}

// IsInstruction reports whether s is a known mnemonic. Lookup is
// case-sensitive against the mnemonic table's upper-case keys; this
// function does not normalise case (the CLI upper-cases mnemonics before
// its own lookup).
func (a *Assembler) IsInstruction(s string) bool {
	_, ok := InstructionsByMnemonic[s]
	return ok
}

var memoryOperandBracketed = regexp.MustCompile(`^\[[A-Za-z0-9+\-*]+\]$`)

// IsOperand reports whether s parses as a register, an immediate, or a
// bracketed memory reference (base, base+displacement, base+scaled-index,
// or an absolute address).
func (a *Assembler) IsOperand(s string) bool {
	if _, ok := RegistersByName[strings.ToLower(s)]; ok {
		return true
	}
	if isImmediateLiteral(s) {
		return true
	}
	if !memoryOperandBracketed.MatchString(s) {
		return false
	}
	inner := s[1 : len(s)-1]
	return isValidMemoryOperandBody(inner)
}

func isImmediateLiteral(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, err := strconv.ParseInt(s[2:], 16, 64)
		return err == nil
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isValidMemoryOperandBody validates the content between a memory operand's
// brackets: one or more +/- separated terms, each a register (optionally
// scaled by "*N") or a decimal/hex literal.
func isValidMemoryOperandBody(inner string) bool {
	terms, signs := splitSignedTerms(inner)
	if len(terms) == 0 {
		return false
	}
	for i, term := range terms {
		if term == "" {
			return false
		}
		if i > 0 && signs[i-1] == '-' && isRegisterOrScaledRegister(term) {
			// A register term is never negated in this addressing syntax;
			// only displacement literals may follow a '-'.
			return false
		}
		if !isRegisterOrScaledRegister(term) && !isImmediateLiteral(term) {
			return false
		}
	}
	return true
}

func isRegisterOrScaledRegister(term string) bool {
	base, _, found := strings.Cut(term, "*")
	if found {
		if _, ok := RegistersByName[strings.ToLower(base)]; !ok {
			return false
		}
		_, err := strconv.Atoi(term[len(base)+1:])
		return err == nil
	}
	_, ok := RegistersByName[strings.ToLower(term)]
	return ok
}

// splitSignedTerms splits s on top-level '+'/'-' operators (s has no nested
// brackets to worry about), returning the terms and, in signs, the operator
// that preceded each term after the first.
func splitSignedTerms(s string) ([]string, []byte) {
	var terms []string
	var signs []byte
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == '+' || s[i] == '-' {
			terms = append(terms, s[start:i])
			signs = append(signs, s[i])
			start = i + 1
		}
	}
	terms = append(terms, s[start:])
	return terms, signs
}

// ArchitectureName - returns the name of the architecture
func (a *Assembler) ArchitectureName() string {
	return "x86_64"
}

// RegisterSet - returns a list of supported registers for the architecture
func (a *Assembler) RegisterSet() []string {
	names := make([]string, 0, len(RegistersByName))
	for name := range RegistersByName {
		names = append(names, name)
	}
	return names
}

// IsRegister - checks if a given string is a valid register for the architecture
func (a *Assembler) IsRegister(name string) bool {
	_, ok := RegistersByName[strings.ToLower(name)]
	return ok
}

// OperandTypes - returns a list of supported operand types for the architecture
func (a *Assembler) OperandTypes() []OperandType {
	return []OperandType{
		OperandNone,
		OperandReg8,
		OperandReg16,
		OperandReg32,
		OperandReg64,
		OperandImm8,
		OperandImm16,
		OperandImm32,
		OperandImm64,
		OperandMem,
		OperandMem8,
		OperandMem16,
		OperandMem32,
		OperandMem64,
		OperandRel8,
		OperandRel32,
		OperandRegMem8,
		OperandRegMem16,
		OperandRegMem32,
		OperandRegMem64,
	}
}

// OperandCounts - returns a list of valid operand counts for the architecture
func (a *Assembler) OperandCounts() []int {
	return []int{OperandCountOne, OperandCountTwo, OperandCountThree}
}

// IsValidOperandCount - checks if a given operand count is valid for the architecture
func (a *Assembler) IsValidOperandCount(count int) bool {
	return count >= OperandCountOne && count <= OperandCountThree
}

// SourceOperandSupportsDestination - checks if a given source operand type can be used with a given destination operand type in an instruction
func (a *Assembler) SourceOperandSupportsDestination(sourceType, destType OperandType) bool {
	// todo: implement this function based on the rules of operand compatibility for x86_64 instructions
	return false
}

// Is8BitInstruction - checks if a given instruction is an 8-bit instruction based on its operand types
func (a *Assembler) Is8BitInstruction(instr Instruction) bool {
	// todo: implement this function based on the instruction's operand types
	return false
}

// RawSource - returns the raw assembly source code
func (a *Assembler) RawSource() string {
	return a.rawSource
}
