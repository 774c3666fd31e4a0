package x86_64

// encodePrefixes emits legacy/REX/VEX/XOP prefixes for the instruction and
// returns the opcode bytes still left to emit. For legacy and REX forms
// this is the full opcode byte slice; for VEX/XOP forms the leading
// map-selector byte has already been folded into the prefix and the
// returned slice is the remainder.
func (s *Session) encodePrefixes(sig MnemonicDefinitionSignature, opts EncodeOptions, reg *Register, rm *SizedMnemonicArgument, vvvv *Register) ([]byte, error) {
	opcode := sig.OpcodeBytes()

	if sig.ContainsFlags(FlagVexOp) && sig.ContainsFlags(FlagXopOp) {
		return nil, newEncodingError("signature sets both VEX_OP and XOP_OP")
	}

	if sig.IntersectsFlags(FlagVexOp | FlagXopOp) {
		return s.encodeVexOrXop(sig, opts, reg, rm, vvvv, opcode)
	}

	return s.encodeLegacyAndREX(sig, opts, reg, rm, opcode)
}

func (s *Session) encodeLegacyAndREX(sig MnemonicDefinitionSignature, opts EncodeOptions, reg *Register, rm *SizedMnemonicArgument, opcode []byte) ([]byte, error) {
	if legacy, ok := sig.LegacyPrefixModification(); ok {
		if err := s.pushByte(legacy); err != nil {
			return nil, err
		}
	}

	if opts.OperandSizeOverrideNeeded {
		if err := s.pushByte(byte(PrefixOperandSize)); err != nil {
			return nil, err
		}
	}

	if opts.REXNeeded {
		if !s.Mode.SupportsREX() {
			return nil, newEncodingError("REX prefix is illegal in protected mode")
		}
		rexByte, err := s.buildREXByte(opts, reg, rm)
		if err != nil {
			return nil, err
		}
		if err := s.pushByte(rexByte); err != nil {
			return nil, err
		}
	}

	return opcode, nil
}

func (s *Session) buildREXByte(opts EncodeOptions, reg *Register, rm *SizedMnemonicArgument) (byte, error) {
	rBit := zeroRegister.CodeAnd8()
	if reg != nil {
		rBit = reg.CodeAnd8()
	}

	xBit := byte(0)
	bBit := byte(0)
	if rm != nil && rm.IsIndirectMemoryReference() {
		if idx := rm.Index(); idx != nil {
			xBit = idx.Register.CodeAnd8()
		}
		if base := rm.Base(); base != nil {
			bBit = base.CodeAnd8()
		}
	} else if rm != nil && rm.IsDirectRegisterReference() {
		bBit = rm.Register().CodeAnd8()
	}

	var w byte
	if opts.REXWNeeded {
		w = 1
	}

	rex := byte(PrefixREX) | (w << 3) | (rBit >> 1) | (xBit >> 2) | (bBit >> 3)
	return rex, nil
}

// zeroRegister is the RAX placeholder used wherever a bit-extraction
// accessor needs to be called on an "absent" register slot.
var zeroRegister = RAX

func (s *Session) encodeVexOrXop(sig MnemonicDefinitionSignature, opts EncodeOptions, reg *Register, rm *SizedMnemonicArgument, vvvv *Register, opcode []byte) ([]byte, error) {
	if len(opcode) == 0 {
		return nil, newEncodingError("VEX/XOP signature has no opcode bytes")
	}

	pp := byte(0x00)
	switch {
	case opts.OperandSizeOverrideNeeded:
		pp = 0x01
	default:
		if legacy, ok := sig.LegacyPrefixModification(); ok {
			switch legacy {
			case byte(PrefixRep):
				pp = 0x01
			case byte(PrefixRepNE):
				pp = 0x03
			}
		}
	}

	// opcode[0] is not a literal instruction byte here: it is the 5-bit
	// VEX/XOP map selector (1 = implied 0F, 2 = implied 0F 38, 3 = implied
	// 0F 3A for VEX; an AMD-assigned value for XOP). The mnemonic table
	// stores it this way so this function never needs to know which
	// mnemonic it is encoding.
	mapSelBase := opcode[0]
	tail := opcode[1:]

	regExtBit := zeroRegister.CodeAnd8() >> 3
	if reg != nil {
		regExtBit = reg.CodeAnd8() >> 3
	}
	indexExtBit := byte(0)
	baseExtBit := byte(0)
	if rm != nil && rm.IsIndirectMemoryReference() {
		if idx := rm.Index(); idx != nil {
			indexExtBit = idx.Register.CodeAnd8() >> 3
		}
		if base := rm.Base(); base != nil {
			baseExtBit = base.CodeAnd8() >> 3
		}
	} else if rm != nil && rm.IsDirectRegisterReference() {
		baseExtBit = rm.Register().CodeAnd8() >> 3
	}

	var byte1 byte
	if s.Mode == Long {
		byte1 = (mapSelBase & 0x1F) | (((regExtBit ^ 1) & 1) << 7) | (((indexExtBit ^ 1) & 1) << 6) | (((baseExtBit ^ 1) & 1) << 5)
	} else {
		byte1 = (mapSelBase & 0x1F) | 0xE0
	}

	vvvvCode := byte(0x00)
	if vvvv != nil {
		vvvvCode = vvvv.Code() & 0x0F
	}

	var w byte
	if opts.REXWNeeded {
		w = 1
	}
	var l byte
	if opts.VexLNeeded {
		l = 1
	}

	byte2 := (pp & 0x03) | (w << 7) | ((^vvvvCode & 0x0F) << 3) | (l << 2)

	// 2-byte VEX shortcut: only available to VEX (never XOP) forms, only
	// when the map selector is 1 (0F) with no index/base extension bit
	// set, and only when W is clear. The reference this encoder is built
	// from emits these two bytes and then falls through to also emit the
	// 3-byte lead — that is a defect, not a second valid form, and is not
	// reproduced here: this function returns immediately.
	if sig.ContainsFlags(FlagVexOp) && (byte1&0x7F) == 0x61 && (byte2&0x80) == 0 {
		if err := s.pushBytes([]byte{0xC5, (byte1 & 0x80) | (byte2 & 0x7F)}); err != nil {
			return nil, err
		}
		return tail, nil
	}

	lead := byte(0xC4)
	if sig.ContainsFlags(FlagXopOp) {
		lead = 0x8F
	}
	if err := s.pushBytes([]byte{lead, byte1, byte2}); err != nil {
		return nil, err
	}
	return tail, nil
}

// encodeOpcodeAndShortArg implements the short-arg opcode-embedding rule:
// when FlagShortArg is set, the last opcode byte has the rm register's low
// 3 bits added to it and rm is consumed here rather than by the addressing
// dispatcher.
func (s *Session) encodeOpcodeAndShortArg(sig MnemonicDefinitionSignature, opcodeTail []byte, rm *SizedMnemonicArgument) ([]byte, error) {
	if !sig.ContainsFlags(FlagShortArg) {
		return opcodeTail, nil
	}
	if len(opcodeTail) == 0 {
		return nil, newEncodingError("short-arg signature has no opcode bytes")
	}
	if rm == nil || !rm.IsDirectRegisterReference() {
		return nil, newEncodingError("short-arg signature requires a direct register reference operand")
	}

	head := opcodeTail[:len(opcodeTail)-1]
	last := opcodeTail[len(opcodeTail)-1]
	embedded := last + rm.Register().CodeAnd7()

	out := make([]byte, 0, len(head)+1)
	out = append(out, head...)
	out = append(out, embedded)
	return out, nil
}
