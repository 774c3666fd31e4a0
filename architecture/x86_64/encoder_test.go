package x86_64

import (
	"bytes"
	"testing"

	"github.com/keurnel/assembler/architecture/x86_64/diagnostics"
)

// newTestSession builds a Session writing into a fresh buffer, returning
// both so tests can assert on the accumulated bytes.
func newTestSession(mode OperationalMode) (*Session, *bytes.Buffer, *bufferedSink) {
	out := &bytes.Buffer{}
	sink := NewBufferedSink(out)
	diag := diagnostics.New("test")
	return NewSession(mode, sink, 0, diag), out, sink
}

func reg(r Register) *SizedMnemonicArgument {
	a := DirectRegisterReference(r, SizeQWord)
	return &a
}

func TestMOVRegisterToRegister(t *testing.T) {
	// MOV rax, rcx -> 48 89 C8
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	form := MOV.Forms[3] // r64, r64
	err := session.Encode(form.Signature, form.DefaultOptions, reg(RCX), reg(RAX), nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x48, 0x89, 0xC8}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
	if len(relocs.Entries()) != 0 {
		t.Errorf("expected no relocations, got %d", len(relocs.Entries()))
	}
}

func TestMOVIndirectNoDisplacementRBP(t *testing.T) {
	// MOV [rbp], al -> 88 45 00 (forced disp8 escape for RBP with no disp)
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	form := MOV.Forms[0] // r8, r8 shares opcode 0x88 with the mem,r8 form, but
	// here we drive the mem,r8 variant directly via that opcode with an
	// indirect rm.
	_ = form

	rm := IndirectMemoryReference(&RBP, nil, nil, SizeNone)
	sig := signature(0, 0x88)
	err := session.Encode(sig, EncodeOptions{}, reg(AL), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x88, 0x45, 0x00}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestMOVAbsoluteDisplacementOnly(t *testing.T) {
	// MOV eax, [0x12345678] -> 8B 04 25 78 56 34 12
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	disp := KnownExpression(0x12345678)
	rm := IndirectMemoryReference(nil, nil, &disp, SizeDWord)
	sig := signature(0, 0x8B)
	err := session.Encode(sig, EncodeOptions{}, reg(EAX), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x8B, 0x04, 0x25, 0x78, 0x56, 0x34, 0x12}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestJMPRel32RecordsRelocation(t *testing.T) {
	// JMP rel32 foo -> E9 00 00 00 00 + one Extern reloc (a Bare jump target
	// is recorded through PushExtern).
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	target := JumpTarget(JumpBare, SymbolExpression("foo"), SizeDWord)
	sig := signature(0, 0xE9)
	err := session.Encode(sig, EncodeOptions{}, nil, nil, nil, nil, []SizedMnemonicArgument{target}, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0xE9, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}

	entries := relocs.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 relocation, got %d", len(entries))
	}
	if entries[0].Kind != RelocationExtern {
		t.Errorf("got kind %v, want RelocationExtern", entries[0].Kind)
	}
	if entries[0].Offset != 1 || entries[0].Size != SizeDWord {
		t.Errorf("got offset=%d size=%v, want offset=1 size=DWord", entries[0].Offset, entries[0].Size)
	}
}

func TestLEARIPRelative(t *testing.T) {
	// LEA rax, [rip+0x10] -> ModR/M 05, disp32 = 10 00 00 00
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	disp := KnownExpression(0x10)
	rm := IndirectMemoryReference(&RIP, nil, &disp, SizeDWord)
	form := LEA.Forms[1] // r64, m
	err := session.Encode(form.Signature, form.DefaultOptions, reg(RAX), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x48, 0x8D, 0x05, 0x10, 0x00, 0x00, 0x00}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
	if len(relocs.Entries()) != 0 {
		t.Errorf("Long mode RIP-relative needs no relocation, got %d", len(relocs.Entries()))
	}
}

func TestLEARIPRelativeProtectedModeEmitsJumpTargetRelativeRelocation(t *testing.T) {
	session, out, sink := newTestSession(Protected)
	relocs := NewRelocations(Protected)

	disp := KnownExpression(0x10)
	rm := IndirectMemoryReference(&RIP, nil, &disp, SizeDWord)
	sig := signature(0, 0x8D)
	err := session.Encode(sig, EncodeOptions{}, reg(EAX), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	if out.Len() != 6 {
		t.Fatalf("expected 6 bytes (opcode+modrm+disp32), got %d: % X", out.Len(), out.Bytes())
	}
	entries := relocs.Entries()
	if len(entries) != 1 || entries[0].Kind != RelocationJumpTargetRelative {
		t.Fatalf("expected 1 JumpTargetRelative relocation, got %+v", entries)
	}
}

func TestVADDPSTwoByteVEXShortcut(t *testing.T) {
	// VADDPS xmm0, xmm1, xmm2 -> C5 F0 58 C2
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	form := VADDPS.Forms[0]
	vvvv := XMM1
	rm := DirectRegisterReference(XMM2, SizeNone)
	regArg := DirectRegisterReference(XMM0, SizeNone)
	err := session.Encode(form.Signature, form.DefaultOptions, &regArg, &rm, &vvvv, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0xC5, 0xF0, 0x58, 0xC2}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestREXIllegalInProtectedMode(t *testing.T) {
	session, _, _ := newTestSession(Protected)
	relocs := NewRelocations(Protected)

	sig := signature(0, 0x89)
	err := session.Encode(sig, EncodeOptions{REXNeeded: true, REXWNeeded: true}, reg(RCX), reg(RAX), nil, nil, nil, relocs)
	if err == nil {
		t.Fatal("expected an InstructionEncodingError, got nil")
	}
	var encErr *InstructionEncodingError
	if !asInstructionEncodingError(err, &encErr) {
		t.Fatalf("expected *InstructionEncodingError, got %T: %v", err, err)
	}
}

func TestShortArgRejectsNonDirectRM(t *testing.T) {
	session, _, _ := newTestSession(Long)
	relocs := NewRelocations(Long)

	rm := IndirectMemoryReference(&RBP, nil, nil, SizeNone)
	sig := signature(FlagShortArg, 0x50)
	err := session.Encode(sig, EncodeOptions{}, nil, &rm, nil, nil, nil, relocs)
	if err == nil {
		t.Fatal("expected an error for short-arg signature with a memory rm")
	}
}

func TestOrdinaryDispOnlyLongModeUsesSIBEscape(t *testing.T) {
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	disp := KnownExpression(0x7F)
	rm := IndirectMemoryReference(nil, nil, &disp, SizeDWord)
	sig := signature(0, 0x8B)
	err := session.Encode(sig, EncodeOptions{}, reg(EAX), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	b := out.Bytes()
	if len(b) < 3 || b[1] != modRMByte(modNoDisplacement, 0, RSP.CodeAnd7()) {
		t.Fatalf("expected ModR/M rm=RSP (SIB follows), got % X", b)
	}
	if b[2] != sibByte(0, RSP.CodeAnd7(), RBP.CodeAnd7()) {
		t.Fatalf("expected SIB=(0,RSP,RBP), got % X", b)
	}
}

func TestSixteenBitAddressingBXNoDisplacement(t *testing.T) {
	// MOV al, [bx] -> 8A 03 (mod=00, rm=BX's register ID 3, no forced displacement)
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	rm := IndirectMemoryReference(&BX, nil, nil, SizeNone)
	sig := signature(0, 0x8A)
	err := session.Encode(sig, EncodeOptions{}, reg(AL), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x8A, 0x07}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestSixteenBitAddressingBPForcesDisplacement8(t *testing.T) {
	// MOV al, [bp] -> 8A 46 00: BP collides with the MOD=00 "no base" escape,
	// so a forced zero disp8 byte follows even though none was supplied.
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	rm := IndirectMemoryReference(&BP, nil, nil, SizeNone)
	sig := signature(0, 0x8A)
	err := session.Encode(sig, EncodeOptions{}, reg(AL), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x8A, 0x46, 0x00}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestSixteenBitAddressingSIWithDisplacement8(t *testing.T) {
	// MOV al, [si+8] -> 8A 44 08
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	disp := KnownExpression(0x08)
	rm := IndirectMemoryReference(&SI, nil, &disp, SizeByte)
	sig := signature(0, 0x8A)
	err := session.Encode(sig, EncodeOptions{}, reg(AL), &rm, nil, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0x8A, 0x44, 0x08}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestVGATHERDPSVSIBAddressingNoBase(t *testing.T) {
	// VGATHERDPS xmm0, [xmm1*4], xmm2 -> C4 E2 69 92 04 8D 00 00 00 00
	// VSIB always forces a disp32 even with no base and no displacement
	// supplied, to keep the form distinguishable from a based reference.
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	form := VGATHERDPS.Forms[0]
	index := ScaledIndex{Register: XMM1, Scale: 4}
	rm := IndirectMemoryReference(nil, &index, nil, SizeNone)
	regArg := DirectRegisterReference(XMM0, SizeNone)
	vvvv := XMM2
	err := session.Encode(form.Signature, form.DefaultOptions, &regArg, &rm, &vvvv, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	want := []byte{0xC4, 0xE2, 0x69, 0x92, 0x04, 0x8D, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % X, want % X", out.Bytes(), want)
	}
}

func TestVGATHERDPSVSIBAddressingWithBaseAndDisplacement8(t *testing.T) {
	// VGATHERDPS xmm0, [rax+xmm1*4+0x10], xmm2 -> SIB base=RAX, disp8=0x10
	session, out, sink := newTestSession(Long)
	relocs := NewRelocations(Long)

	form := VGATHERDPS.Forms[0]
	index := ScaledIndex{Register: XMM1, Scale: 4}
	disp := KnownExpression(0x10)
	rm := IndirectMemoryReference(&RAX, &index, &disp, SizeByte)
	regArg := DirectRegisterReference(XMM0, SizeNone)
	vvvv := XMM2
	err := session.Encode(form.Signature, form.DefaultOptions, &regArg, &rm, &vvvv, nil, nil, relocs)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	b := out.Bytes()
	if len(b) != 7 {
		t.Fatalf("expected 7 bytes (3-byte VEX + opcode + ModR/M + SIB + disp8), got % X", b)
	}
	modrm := b[4]
	sib := b[5]
	dispByte := b[6]
	if modrm != modRMByte(modDisplacement8, 0, RSP.CodeAnd7()) {
		t.Errorf("got ModR/M % X, want rm=RSP escape with disp8 mod", modrm)
	}
	if sib != sibByte(index.EncodedScale(), XMM1.CodeAnd7(), RAX.CodeAnd7()) {
		t.Errorf("got SIB % X, want scale=4,index=XMM1,base=RAX", sib)
	}
	if dispByte != 0x10 {
		t.Errorf("got displacement byte % X, want 0x10", dispByte)
	}
}

func asInstructionEncodingError(err error, target **InstructionEncodingError) bool {
	if e, ok := err.(*InstructionEncodingError); ok {
		*target = e
		return true
	}
	return false
}
