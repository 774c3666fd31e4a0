package x86_64

// ModR/M MOD field values.
const (
	modNoDisplacement byte = 0x00
	modDisplacement8  byte = 0x01
	modDisplacement32 byte = 0x02
	modDirect         byte = 0x03
)

func modRMByte(mod, regField, rmField byte) byte {
	return (mod << 6) | ((regField & 0x07) << 3) | (rmField & 0x07)
}

func sibByte(scale, indexField, baseField byte) byte {
	return (scale << 6) | ((indexField & 0x07) << 3) | (baseField & 0x07)
}

// encodeAddressing dispatches rm to the matching addressing form and emits
// ModR/M, any SIB byte, and any displacement. regField supplies the
// already-resolved ModR/M reg value (from MnemonicDefinitionSignature.RegK).
func (s *Session) encodeAddressing(rm *SizedMnemonicArgument, regField Register, relocs *Relocations) error {
	if rm == nil {
		return nil
	}

	switch {
	case rm.IsDirectRegisterReference():
		return s.pushByte(modRMByte(modDirect, regField.CodeAnd7(), rm.Register().CodeAnd7()))

	case rm.IsIndirectJumpTarget():
		if err := s.pushByte(modRMByte(modNoDisplacement, regField.CodeAnd7(), RBP.CodeAnd7())); err != nil {
			return err
		}
		offset := s.Offset()
		if err := s.pushZeroes(4); err != nil {
			return err
		}
		relocs.PushJumpTargetAddressing(offset, SizeDWord, KnownExpression(0))
		return nil

	case rm.IsIndirectMemoryReference():
		switch {
		case rm.IsVSIBAddressing():
			return s.encodeVSIBAddressing(rm, regField)
		case s.isSixteenBitAddressing(rm):
			return s.encodeSixteenBitAddressing(rm, regField)
		case rm.IsRIPRelative():
			return s.encodeRIPRelativeAddressing(rm, regField, relocs)
		default:
			return s.encodeOrdinaryAddressing(rm, regField)
		}

	default:
		return nil
	}
}

// isSixteenBitAddressing reports whether rm should use the legacy 16-bit
// addressing sub-encoder. It is signaled by an explicit 16-bit address size
// carried on the base register's width rather than a separate field,
// matching how the original implementation distinguished the 16-bit form:
// a base register whose Type is Register16.
func (s *Session) isSixteenBitAddressing(rm *SizedMnemonicArgument) bool {
	if base := rm.Base(); base != nil {
		return base.Type == Register16
	}
	return false
}

// --- 4.4.1 VSIB addressing ---

func (s *Session) encodeVSIBAddressing(rm *SizedMnemonicArgument, regField Register) error {
	base := rm.Base()
	index := rm.Index()

	var mod byte
	var baseField byte
	switch {
	case base == nil:
		mod = modNoDisplacement
		baseField = RBP.CodeAnd7()
	case rm.Displacement() != nil && rm.DisplacementSize() == SizeByte:
		mod = modDisplacement8
		baseField = base.CodeAnd7()
	case rm.Displacement() != nil:
		mod = modDisplacement32
		baseField = base.CodeAnd7()
	default:
		// VSIB always carries a displacement byte even when the caller
		// supplied none, to keep the form distinguishable from the
		// "no base" encoding above.
		mod = modDisplacement8
		baseField = base.CodeAnd7()
	}

	if err := s.pushByte(modRMByte(mod, regField.CodeAnd7(), RSP.CodeAnd7())); err != nil {
		return err
	}
	if err := s.pushByte(sibByte(index.EncodedScale(), index.Register.CodeAnd7(), baseField)); err != nil {
		return err
	}

	size := SizeDWord
	if mod == modDisplacement8 {
		size = SizeByte
	}
	return s.pushDisplacement(rm.Displacement(), size)
}

// --- 4.4.2 16-bit addressing ---

func (s *Session) encodeSixteenBitAddressing(rm *SizedMnemonicArgument, regField Register) error {
	base := rm.Base()
	if base == nil {
		return newEncodingError("16-bit addressing requires a base register")
	}

	var mod byte
	switch {
	case rm.Displacement() != nil && rm.DisplacementSize() == SizeByte:
		mod = modDisplacement8
	case rm.Displacement() != nil:
		mod = modDisplacement32
	case base.IsRBPLike():
		mod = modDisplacement8
	default:
		mod = modNoDisplacement
	}

	// 16-bit ModR/M rm codes for a lone base register: [si]=4, [di]=5,
	// [bp]=6, [bx]=7.
	rmField := base.CodeAnd7()
	switch base.Encoding {
	case SI.Encoding:
		rmField = 4
	case DI.Encoding:
		rmField = 5
	case BP.Encoding:
		rmField = 6
	case BX.Encoding:
		rmField = 7
	}

	if err := s.pushByte(modRMByte(mod, regField.CodeAnd7(), rmField)); err != nil {
		return err
	}

	switch mod {
	case modDisplacement32:
		return s.pushDisplacement(rm.Displacement(), SizeWord)
	case modDisplacement8:
		return s.pushDisplacement(rm.Displacement(), SizeByte)
	default:
		return nil
	}
}

// --- 4.4.3 RIP-relative addressing ---

func (s *Session) encodeRIPRelativeAddressing(rm *SizedMnemonicArgument, regField Register, relocs *Relocations) error {
	if err := s.pushByte(modRMByte(modNoDisplacement, regField.CodeAnd7(), RBP.CodeAnd7())); err != nil {
		return err
	}

	if s.Mode.SupportsNativeRIPRelative() {
		if disp := rm.Displacement(); disp != nil {
			return s.pushExpression(*disp, SizeDWord, true)
		}
		return s.pushZeroes(4)
	}

	// Protected mode cannot decode MOD=00,rm=RBP as RIP-relative; the four
	// bytes are reserved and a JumpTargetRelative relocation over a bare
	// expression lets the linker/runtime compute the intended address
	// instead.
	offset := s.Offset()
	expr := KnownExpression(0)
	if disp := rm.Displacement(); disp != nil {
		expr = *disp
	}
	if err := s.pushZeroes(4); err != nil {
		return err
	}
	relocs.PushJumpTargetAddressing(offset, SizeDWord, expr)
	return nil
}

// --- 4.4.4 Ordinary indirect addressing ---

func (s *Session) encodeOrdinaryAddressing(rm *SizedMnemonicArgument, regField Register) error {
	base := rm.Base()
	index := rm.Index()
	hasDisp := rm.Displacement() != nil

	var mod byte
	switch {
	case base != nil && base.IsRBPLike() && !hasDisp:
		mod = modDisplacement8
	case !hasDisp || base == nil:
		mod = modNoDisplacement
	default:
		if rm.DisplacementSize() == SizeByte {
			mod = modDisplacement8
		} else {
			mod = modDisplacement32
		}
	}

	if index != nil {
		if err := s.pushByte(modRMByte(mod, regField.CodeAnd7(), RSP.CodeAnd7())); err != nil {
			return err
		}
		baseField := RBP.CodeAnd7()
		if base != nil {
			baseField = base.CodeAnd7()
		}
		if err := s.pushByte(sibByte(index.EncodedScale(), index.Register.CodeAnd7(), baseField)); err != nil {
			return err
		}
	} else if base != nil {
		if err := s.pushByte(modRMByte(mod, regField.CodeAnd7(), base.CodeAnd7())); err != nil {
			return err
		}
	} else {
		// disp-only, no base, no index.
		if s.Mode == Protected {
			if err := s.pushByte(modRMByte(mod, regField.CodeAnd7(), RBP.CodeAnd7())); err != nil {
				return err
			}
		} else {
			if err := s.pushByte(modRMByte(mod, regField.CodeAnd7(), RSP.CodeAnd7())); err != nil {
				return err
			}
			if err := s.pushByte(sibByte(0, RSP.CodeAnd7(), RBP.CodeAnd7())); err != nil {
				return err
			}
		}
	}

	switch {
	case hasDisp:
		size := SizeDWord
		if mod == modDisplacement8 {
			size = SizeByte
		}
		return s.pushDisplacement(rm.Displacement(), size)
	case base == nil:
		return s.pushZeroes(4)
	case mod == modDisplacement8:
		return s.pushZeroes(1)
	default:
		return nil
	}
}

func (s *Session) pushDisplacement(disp *Expression, size Size) error {
	if disp == nil {
		return s.pushZeroes(size.Bytes())
	}
	return s.pushExpression(*disp, size, true)
}
