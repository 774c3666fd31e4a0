package x86_64

// encodeImmediates emits the is4-style register-in-immediate byte (if any)
// followed by the remaining immediate and jump-target operands, in order.
func (s *Session) encodeImmediates(registerInImmediate *Register, trailing []SizedMnemonicArgument, relocs *Relocations) error {
	remaining := trailing

	if registerInImmediate != nil {
		selector := registerInImmediate.CodeAnd7() << 4
		if registerInImmediate.CodeAnd8() != 0 {
			selector |= 0x08 << 4
		}

		if len(remaining) > 0 && remaining[0].IsImmediate() && remaining[0].Size() == SizeByte {
			imm := remaining[0].ImmediateExpression()
			if imm.Known {
				selector |= byte(imm.Value) & 0x0F
			}
			remaining = remaining[1:]
			if err := s.pushByte(selector); err != nil {
				return err
			}
		} else {
			if err := s.pushByte(selector); err != nil {
				return err
			}
		}
	}

	for _, operand := range remaining {
		switch {
		case operand.IsImmediate():
			if err := s.pushExpression(operand.ImmediateExpression(), operand.Size(), true); err != nil {
				return err
			}

		case operand.IsJumpTarget():
			offset := s.Offset()
			expr := operand.JumpTargetExpression()
			if err := s.pushZeroes(operand.JumpSize().Bytes()); err != nil {
				return err
			}
			if operand.JumpVariant() == JumpBare {
				relocs.PushExtern(offset, operand.JumpSize(), expr)
			} else {
				relocs.PushRelative(offset, operand.JumpSize(), expr)
			}

		default:
			return newEncodingError("unexpected operand in immediate position")
		}
	}

	return nil
}
