package classfile

import (
	"fmt"
	"unicode/utf16"
)

const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// cpEntry is one constant-pool slot. a and b are the index operands for
// reference tags; str is set for Utf8.
type cpEntry struct {
	tag byte
	a   uint16
	b   uint16
	str string
}

// constantPool is indexed from 1; slot 0 and the slot after each Long/Double are empty.
type constantPool []cpEntry

func readConstantPool(d *decoder) (constantPool, error) {
	count := int(d.u2())
	if d.err != nil {
		return nil, d.err
	}
	pool := make(constantPool, count)
	for i := 1; i < count; i++ {
		tag := d.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			e.str = decodeModifiedUTF8(d.bytes(int(d.u2())))
		case tagInteger, tagFloat:
			d.skip(4)
		case tagLong, tagDouble:
			d.skip(8)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = d.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			e.a, e.b = d.u2(), d.u2()
		case tagMethodHandle:
			d.skip(1)
			e.a = d.u2()
		default:
			if d.err != nil {
				return nil, d.err
			}
			return nil, fmt.Errorf("%w: constant %d has unknown tag %d", ErrMalformed, i, tag)
		}
		if d.err != nil {
			return nil, d.err
		}
		pool[i] = e
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return pool, nil
}

func (p constantPool) entry(idx uint16) (cpEntry, error) {
	if idx == 0 || int(idx) >= len(p) || p[idx].tag == 0 {
		return cpEntry{}, fmt.Errorf("%w: constant index %d out of range", ErrMalformed, idx)
	}
	return p[idx], nil
}

func (p constantPool) utf8(idx uint16) (string, error) {
	e, err := p.entry(idx)
	if err != nil {
		return "", err
	}
	if e.tag != tagUtf8 {
		return "", fmt.Errorf("%w: constant %d is tag %d, want Utf8", ErrMalformed, idx, e.tag)
	}
	return e.str, nil
}

func (p constantPool) className(idx uint16) (string, error) {
	e, err := p.entry(idx)
	if err != nil {
		return "", err
	}
	if e.tag != tagClass {
		return "", fmt.Errorf("%w: constant %d is tag %d, want Class", ErrMalformed, idx, e.tag)
	}
	return p.utf8(e.a)
}

// memberOwner resolves a Methodref or InterfaceMethodref to its owning class name.
func (p constantPool) memberOwner(idx uint16) (string, error) {
	e, err := p.entry(idx)
	if err != nil {
		return "", err
	}
	if e.tag != tagMethodref && e.tag != tagInterfaceMethodref {
		return "", fmt.Errorf("%w: constant %d is tag %d, want method reference", ErrMalformed, idx, e.tag)
	}
	return p.className(e.a)
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is two bytes and
// supplementary characters are encoded as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0 && i+1 < len(b):
			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0 && i+2 < len(b):
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			units = append(units, 0xfffd)
			i++
		}
	}
	return string(utf16.Decode(units))
}
