package x86_64

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	core "github.com/keurnel/assembler/architecture/x86_64"
	"github.com/keurnel/assembler/architecture/x86_64/diagnostics"
	"github.com/spf13/cobra"
)

var encodeOutputPath string
var encodeProtectedMode bool

var EncodeCmd = &cobra.Command{
	Use:     "encode <mnemonic> [operands...]",
	GroupID: "file-operations",
	Short:   "Encode a single instruction into its machine code bytes.",
	Long: `Encode a single instruction into its machine code bytes, e.g.:

  keurnel-asm x86_64 encode mov rax, rcx
  keurnel-asm x86_64 encode jmp 0x10 --protected`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEncodeLine(cmd, args); err != nil {
			cmd.PrintErrln("Error:", err)
		}
	},
}

func init() {
	EncodeCmd.Flags().StringVarP(&encodeOutputPath, "output", "o", "", "write raw machine code bytes to this file instead of printing hex")
	EncodeCmd.Flags().BoolVar(&encodeProtectedMode, "protected", false, "encode for 32-bit protected mode instead of 64-bit long mode")
}

// runEncodeLine resolves a mnemonic and its operands against the instruction
// table and drives a single Session.Encode call, then reports the resulting
// bytes and every relocation recorded for the instruction.
func runEncodeLine(cmd *cobra.Command, args []string) error {
	mnemonic := strings.ToUpper(args[0])
	operandStr := strings.Join(args[1:], "")
	var operands []string
	if operandStr != "" {
		for _, o := range strings.Split(operandStr, ",") {
			operands = append(operands, strings.TrimSpace(o))
		}
	}

	instruction, ok := core.InstructionsByMnemonic[mnemonic]
	if !ok {
		return fmt.Errorf("unknown instruction: %s", mnemonic)
	}

	built, err := resolveForm(instruction, operands)
	if err != nil {
		return fmt.Errorf("%s: %w", mnemonic, err)
	}

	mode := core.Long
	if encodeProtectedMode {
		mode = core.Protected
	}

	out := &bytes.Buffer{}
	sink := core.NewBufferedSink(out)
	diag := diagnostics.New(mnemonic)
	session := core.NewSession(mode, sink, 0, diag)
	relocs := core.NewRelocations(mode)

	if err := session.Encode(built.signature, built.options, built.reg, built.rm, built.vvvv, built.registerInImmediate, built.trailing, relocs); err != nil {
		return fmt.Errorf("%s: %w", mnemonic, err)
	}
	if err := sink.Finish(); err != nil {
		return fmt.Errorf("%s: %w", mnemonic, err)
	}

	if encodeOutputPath != "" {
		return os.WriteFile(encodeOutputPath, out.Bytes(), 0644)
	}

	cmd.Println(hex.EncodeToString(out.Bytes()))
	for _, entry := range relocs.Entries() {
		cmd.Printf("  relocation: %s at offset %d, size %d bytes\n", entry.Kind, entry.Offset, entry.Size.Bytes())
	}
	if diag.HasErrors() {
		for _, e := range diag.Errors() {
			cmd.PrintErrln(e.String())
		}
	}
	return nil
}

// builtForm is the resolved set of arguments a matched MnemonicForm needs
// before Session.Encode can run.
type builtForm struct {
	signature           core.MnemonicDefinitionSignature
	options             core.EncodeOptions
	reg                 *core.SizedMnemonicArgument
	rm                  *core.SizedMnemonicArgument
	vvvv                *core.Register
	registerInImmediate *core.Register
	trailing            []core.SizedMnemonicArgument
}

// resolveForm matches operand strings against the mnemonic's forms in
// declaration order, returning the first form whose operand count and types
// all resolve.
func resolveForm(instruction core.Instruction, operands []string) (*builtForm, error) {
	for _, form := range instruction.Forms {
		expected := len(form.Operands)
		if expected == 1 && form.Operands[0] == core.OperandNone {
			expected = 0
		}
		if len(operands) != expected {
			continue
		}

		built, ok := tryBuildForm(form, operands)
		if ok {
			return built, nil
		}
	}
	return nil, fmt.Errorf("no matching form for operands: %v", operands)
}

func tryBuildForm(form core.MnemonicForm, operands []string) (*builtForm, bool) {
	built := &builtForm{signature: form.Signature, options: form.DefaultOptions}

	var args []core.SizedMnemonicArgument
	for i, operand := range operands {
		expectedType := form.Operands[i]

		if r, ok := core.RegistersByName[strings.ToLower(operand)]; ok {
			if expectedType.Type != "register" {
				return nil, false
			}
			size := registerSize(r)
			if int(size) != expectedType.Size {
				return nil, false
			}
			args = append(args, core.DirectRegisterReference(r, size))
			continue
		}

		if imm, ok := parseImmediate(operand); ok {
			if expectedType.Type != "immediate" && expectedType.Type != "relative" {
				return nil, false
			}
			args = append(args, core.Immediate(core.KnownExpression(imm), sizeFromBits(expectedType.Size)))
			continue
		}

		if isLabel(operand) {
			switch expectedType.Identifier {
			case "rel8":
				args = append(args, core.JumpTarget(core.JumpBare, core.SymbolExpression(operand), core.SizeByte))
				continue
			case "rel32":
				args = append(args, core.JumpTarget(core.JumpBare, core.SymbolExpression(operand), core.SizeDWord))
				continue
			}
		}

		return nil, false
	}

	assignOperands(built, args)
	return built, true
}

// assignOperands maps the resolved operand list onto the Session.Encode
// argument slots by conventional x86 operand order: reg field, then rm
// field, then any trailing immediate/jump-target operands.
func assignOperands(built *builtForm, args []core.SizedMnemonicArgument) {
	switch len(args) {
	case 0:
		return
	case 1:
		a := args[0]
		if a.IsImmediate() || a.IsJumpTarget() {
			built.trailing = []core.SizedMnemonicArgument{a}
			return
		}
		built.rm = &a
	default:
		first := args[0]
		second := args[1]
		built.reg = &first
		built.rm = &second
		if len(args) > 2 {
			built.trailing = args[2:]
		}
	}
}

func registerSize(r core.Register) core.Size {
	switch r.Type {
	case core.Register8:
		return core.SizeByte
	case core.Register16:
		return core.SizeWord
	case core.Register32:
		return core.SizeDWord
	case core.Register64:
		return core.SizeQWord
	default:
		return core.SizeNone
	}
}

func sizeFromBits(bits int) core.Size {
	switch bits {
	case 8:
		return core.SizeByte
	case 16:
		return core.SizeWord
	case 32:
		return core.SizeDWord
	case 64:
		return core.SizeQWord
	default:
		return core.SizeNone
	}
}

func parseImmediate(operand string) (int64, bool) {
	operand = strings.TrimSpace(operand)
	if strings.HasPrefix(operand, "0x") || strings.HasPrefix(operand, "0X") {
		val, err := strconv.ParseInt(operand[2:], 16, 64)
		return val, err == nil
	}
	val, err := strconv.ParseInt(operand, 10, 64)
	return val, err == nil
}

func isLabel(operand string) bool {
	if len(operand) == 0 || (operand[0] >= '0' && operand[0] <= '9') {
		return false
	}
	for _, c := range operand {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
