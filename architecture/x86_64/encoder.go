package x86_64

import (
	"github.com/keurnel/assembler/architecture/x86_64/diagnostics"
)

// Sink is the combined byte/expression sink a Session writes through.
type Sink interface {
	ByteSink
	ExpressionSink
}

// EncodeOptions carries the flags a caller is expected to have already
// derived from the chosen signature and resolved operand sizes: whether the
// legacy operand-size-override prefix is needed, whether a REX (or,
// indirectly, VEX.W) is needed, and whether a 256-bit vector length is
// requested. The core treats all four as opaque booleans; it does not
// re-derive them from the signature.
type EncodeOptions struct {
	OperandSizeOverrideNeeded bool
	REXNeeded                 bool
	REXWNeeded                bool
	VexLNeeded                bool
}

// Session bundles one encoder invocation's state: the target mode, the
// sink bytes and symbolic values are written through, an optional
// diagnostics recorder, and the running byte offset within the caller's
// function-wide stream (used only to compute relocation offsets).
type Session struct {
	Mode        OperationalMode
	Diagnostics *diagnostics.Diagnostics

	sink   Sink
	offset int
}

// NewSession creates a Session. startOffset is the byte position, within
// whatever larger stream the caller is assembling, that the next emitted
// byte will occupy.
func NewSession(mode OperationalMode, sink Sink, startOffset int, diag *diagnostics.Diagnostics) *Session {
	return &Session{Mode: mode, sink: sink, offset: startOffset, Diagnostics: diag}
}

// Offset returns the current byte position.
func (s *Session) Offset() int {
	return s.offset
}

func (s *Session) trace(phase, message string) {
	if s.Diagnostics == nil {
		return
	}
	s.Diagnostics.Trace(diagnostics.Loc("", 0, 0), phase+": "+message)
}

func (s *Session) pushBytes(p []byte) error {
	if err := s.sink.WriteBytes(p); err != nil {
		return errorWhenWritingMachineCode(err)
	}
	s.offset += len(p)
	return nil
}

func (s *Session) pushByte(b byte) error {
	return s.pushBytes([]byte{b})
}

func (s *Session) pushZeroes(n int) error {
	return s.pushBytes(make([]byte, n))
}

func (s *Session) pushExpression(expr Expression, size Size, signed bool) error {
	if err := s.sink.WriteExpression(expr, size, signed); err != nil {
		return errorWhenWritingMachineCode(err)
	}
	s.offset += size.Bytes()
	return nil
}

// Encode runs the full per-instruction pipeline described in the component
// design: prefixes, short-arg opcode embedding, ModR/M/SIB/displacement
// addressing, and trailing immediates/jump targets. reg and rm follow the
// conventional roles: reg supplies the ModR/M reg field (and the REX.R /
// VEX.R extension bit); rm is the operand that the addressing dispatcher
// encodes. registerInImmediate, when non-nil, is the is4-style register
// selector emitted before the trailing operands. trailing holds any
// further immediate and jump-target operands, emitted in order.
// vvvv is the VEX/XOP second-source register field for three- and
// four-operand vector forms (e.g. the xmm1 in "VADDPS xmm0, xmm1, xmm2");
// pass nil for signatures that do not use it.
func (s *Session) Encode(sig MnemonicDefinitionSignature, opts EncodeOptions, reg *SizedMnemonicArgument, rm *SizedMnemonicArgument, vvvv *Register, registerInImmediate *Register, trailing []SizedMnemonicArgument, relocs *Relocations) error {
	s.trace("encode", "begin instruction")

	var regField *Register
	if reg != nil && reg.IsDirectRegisterReference() {
		r := reg.Register()
		regField = &r
	}

	opcodeTail, err := s.encodePrefixes(sig, opts, regField, rm, vvvv)
	if err != nil {
		return err
	}

	remaining, err := s.encodeOpcodeAndShortArg(sig, opcodeTail, rm)
	if err != nil {
		return err
	}
	if err := s.pushBytes(remaining); err != nil {
		return err
	}

	// A short-arg signature already consumed rm by embedding its register
	// code into the opcode byte above; the addressing dispatcher has
	// nothing left to encode for it.
	if !sig.ContainsFlags(FlagShortArg) {
		regResolved := sig.RegK(regField)
		if err := s.encodeAddressing(rm, regResolved, relocs); err != nil {
			return err
		}
	}

	if registerInImmediate != nil || len(trailing) > 0 {
		if err := s.encodeImmediates(registerInImmediate, trailing, relocs); err != nil {
			return err
		}
	}

	s.trace("encode", "end instruction")
	return nil
}
