package bitwire

// expecting is reported when the input is not a record.
const expecting = "a record wrapping a primitive bit-flag value"

// bitsVisitor collects the bits field of a single record.
// A fresh visitor is used for every decode.
type bitsVisitor[B Bits] struct {
	bits B
	seen bool
}

func (v *bitsVisitor[B]) Expecting() string {
	return expecting
}

func (v *bitsVisitor[B]) VisitField(name string, value ValueDecoder) error {
	if name != FieldBits {
		return newUnknownField(name, recordFields)
	}
	if v.seen {
		return newDuplicateField(FieldBits)
	}
	var bits B
	if err := value.Decode(&bits); err != nil {
		return err
	}
	v.bits = bits
	v.seen = true
	return nil
}

func (v *bitsVisitor[B]) End() error {
	if !v.seen {
		return newMissingField(FieldBits)
	}
	return nil
}

// Decode reads a record from r and rebuilds a T from its bits field.
//
// Bits with no assigned name are kept. Structural errors are returned as
// *FieldError or *TypeError; errors raised by r are returned unchanged.
func Decode[T Retainer[T, B], B Bits](r RecordReader) (T, error) {
	var zero T
	visitor := &bitsVisitor[B]{}
	if err := r.ReadRecord(TypeName[T](), recordFields, visitor); err != nil {
		return zero, err
	}
	return zero.FromBitsRetain(visitor.bits), nil
}

// Unmarshal decodes a record produced by codec.
func Unmarshal[T Retainer[T, B], B Bits](codec Codec, data []byte) (T, error) {
	return Decode[T, B](codec.NewReader(data))
}
