// Package classfile decodes compiled JVM class files into model.ClassDescriptor values.
//
// Only the parts the dependency graph needs are decoded: the constant pool,
// the class header, method bodies (Code attributes) and the attributes that
// mark a class as nested. Fields and all other attributes are skipped.
package classfile

import (
	"errors"
	"fmt"
	"io"

	"github.com/olehluchkiv/classgraph/internal/model"
)

const magic = 0xCAFEBABE

const accModule = 0x8000

var (
	// ErrNotClassFile is returned when the input does not start with the class-file magic.
	ErrNotClassFile = errors.New("not a class file")
	// ErrTruncated is returned when the input ends in the middle of a structure.
	ErrTruncated = errors.New("truncated class file")
	// ErrMalformed is returned for inconsistent content such as a bad constant-pool reference.
	ErrMalformed = errors.New("malformed class file")
)

// Reader decodes class files. It holds no state and is safe for concurrent use.
type Reader struct{}

// NewReader returns a class-file Reader.
func NewReader() *Reader { return &Reader{} }

// Read decodes a single class file from r.
func (*Reader) Read(r io.Reader) (*model.ClassDescriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading class file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a class file held in memory.
func Parse(data []byte) (*model.ClassDescriptor, error) {
	d := &decoder{b: data}
	if d.u4() != magic {
		if d.err != nil {
			return nil, d.err
		}
		return nil, ErrNotClassFile
	}
	d.skip(4) // minor, major

	pool, err := readConstantPool(d)
	if err != nil {
		return nil, err
	}

	access := d.u2()
	thisIdx := d.u2()
	superIdx := d.u2()
	if d.err != nil {
		return nil, d.err
	}

	name, err := pool.className(thisIdx)
	if err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	desc := &model.ClassDescriptor{
		Name:   name,
		Module: access&accModule != 0,
	}
	if superIdx != 0 {
		if desc.SuperName, err = pool.className(superIdx); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	ifaceCount := int(d.u2())
	for i := 0; i < ifaceCount && d.err == nil; i++ {
		idx := d.u2()
		if d.err != nil {
			return nil, d.err
		}
		iface, err := pool.className(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		desc.Interfaces = append(desc.Interfaces, iface)
	}

	// Fields carry no references the graph uses.
	fieldCount := int(d.u2())
	for i := 0; i < fieldCount && d.err == nil; i++ {
		d.skip(6)
		skipAttributes(d)
	}

	methodCount := int(d.u2())
	for i := 0; i < methodCount && d.err == nil; i++ {
		m, err := readMethod(d, pool)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		desc.Methods = append(desc.Methods, m)
	}

	attrCount := int(d.u2())
	for i := 0; i < attrCount && d.err == nil; i++ {
		attrName, body, err := readAttribute(d, pool)
		if err != nil {
			return nil, err
		}
		switch attrName {
		case "InnerClasses":
			nested, err := listsItselfAsInner(body, pool, name)
			if err != nil {
				return nil, fmt.Errorf("InnerClasses: %w", err)
			}
			desc.Nested = desc.Nested || nested
		case "NestHost":
			// Only nest members carry NestHost; the host itself does not.
			desc.Nested = true
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return desc, nil
}

func readMethod(d *decoder, pool constantPool) (model.MethodDescriptor, error) {
	d.skip(2) // access flags
	nameIdx, descIdx := d.u2(), d.u2()
	if d.err != nil {
		return model.MethodDescriptor{}, d.err
	}
	name, err := pool.utf8(nameIdx)
	if err != nil {
		return model.MethodDescriptor{}, fmt.Errorf("name: %w", err)
	}
	sig, err := pool.utf8(descIdx)
	if err != nil {
		return model.MethodDescriptor{}, fmt.Errorf("descriptor: %w", err)
	}
	m := model.MethodDescriptor{Name: name, Descriptor: sig}

	count := int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		attrName, body, err := readAttribute(d, pool)
		if err != nil {
			return m, err
		}
		if attrName != "Code" {
			continue
		}
		code, err := codeBytes(body)
		if err != nil {
			return m, fmt.Errorf("%s: %w", name, err)
		}
		if m.Instructions, err = decodeInstructions(code, pool); err != nil {
			return m, fmt.Errorf("%s: %w", name, err)
		}
	}
	return m, d.err
}

func readAttribute(d *decoder, pool constantPool) (string, []byte, error) {
	nameIdx := d.u2()
	length := d.u4()
	body := d.bytes(int(length))
	if d.err != nil {
		return "", nil, d.err
	}
	name, err := pool.utf8(nameIdx)
	if err != nil {
		return "", nil, fmt.Errorf("attribute name: %w", err)
	}
	return name, body, nil
}

func skipAttributes(d *decoder) {
	count := int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		d.skip(2)
		d.skip(int(d.u4()))
	}
}

// codeBytes extracts the bytecode array from a Code attribute body.
func codeBytes(body []byte) ([]byte, error) {
	d := &decoder{b: body}
	d.skip(4) // max_stack, max_locals
	code := d.bytes(int(d.u4()))
	return code, d.err
}

// listsItselfAsInner reports whether an InnerClasses attribute has an entry
// describing the class that owns the attribute. Entries are matched by class
// name, since a pool may hold more than one CONSTANT_Class for the same name.
func listsItselfAsInner(body []byte, pool constantPool, self string) (bool, error) {
	d := &decoder{b: body}
	n := int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		inner := d.u2()
		d.skip(6) // outer_class_info, inner_name, inner_class_access_flags
		if d.err != nil {
			break
		}
		name, err := pool.className(inner)
		if err != nil {
			return false, fmt.Errorf("entry %d: %w", i, err)
		}
		if name == self {
			return true, nil
		}
	}
	return false, d.err
}

// decodeInstructions walks a method's bytecode, resolving call-site owners and
// class literals.
func decodeInstructions(code []byte, pool constantPool) ([]model.Instruction, error) {
	var out []model.Instruction
	for pc := 0; pc < len(code); {
		op := code[pc]
		n, err := instructionLength(code, pc)
		if err != nil {
			return nil, fmt.Errorf("pc %d: %w", pc, err)
		}
		if pc+n > len(code) {
			return nil, fmt.Errorf("pc %d: %w", pc, ErrTruncated)
		}

		insn := model.NewOther(op)
		switch op {
		case opInvokevirtual, opInvokespecial, opInvokestatic, opInvokeinterface:
			owner, err := pool.memberOwner(be16(code[pc+1:]))
			if err != nil {
				return nil, fmt.Errorf("pc %d: %w", pc, err)
			}
			insn = model.NewInvoke(op, owner)
		case opLdc, opLdcW:
			idx := uint16(code[pc+1])
			if op == opLdcW {
				idx = be16(code[pc+1:])
			}
			e, err := pool.entry(idx)
			if err != nil {
				return nil, fmt.Errorf("pc %d: %w", pc, err)
			}
			if e.tag == tagClass {
				lit, err := pool.utf8(e.a)
				if err != nil {
					return nil, fmt.Errorf("pc %d: %w", pc, err)
				}
				insn = model.NewClassLiteral(op, lit)
			}
		}
		out = append(out, insn)
		pc += n
	}
	return out, nil
}

// instructionLength returns the encoded length of the instruction at pc.
// Switch padding is relative to the start of the code array.
func instructionLength(code []byte, pc int) (int, error) {
	op := code[pc]
	switch op {
	case opTableswitch, opLookupswitch:
		pad := (4 - (pc+1)%4) % 4
		base := pc + 1 + pad
		header := 8 // default, npairs
		if op == opTableswitch {
			header = 12 // default, low, high
		}
		if base+header > len(code) {
			return 0, ErrTruncated
		}
		var entries, width int64
		if op == opTableswitch {
			low := int64(int32(be32(code[base+4:])))
			high := int64(int32(be32(code[base+8:])))
			if high < low {
				return 0, fmt.Errorf("%w: tableswitch high < low", ErrMalformed)
			}
			entries, width = high-low+1, 4
		} else {
			entries = int64(int32(be32(code[base+4:])))
			if entries < 0 {
				return 0, fmt.Errorf("%w: negative lookupswitch npairs", ErrMalformed)
			}
			width = 8
		}
		base += header
		end := int64(base) + entries*width
		if end > int64(len(code)) {
			return 0, ErrTruncated
		}
		return int(end) - pc, nil
	case opWide:
		if pc+1 >= len(code) {
			return 0, ErrTruncated
		}
		if code[pc+1] == opIinc {
			return 6, nil
		}
		return 4, nil
	}
	if n := opLengths[op]; n != 0 {
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: undefined opcode 0x%02x", ErrMalformed, op)
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// decoder reads big-endian values; the first failure sticks in err and all
// later reads return zero values.
type decoder struct {
	b   []byte
	off int
	err error
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.b) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, d.off)
		return nil
	}
	out := d.b[d.off : d.off+n]
	d.off += n
	return out
}

func (d *decoder) skip(n int) { d.bytes(n) }

func (d *decoder) u1() uint8 {
	b := d.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u2() uint16 {
	b := d.bytes(2)
	if b == nil {
		return 0
	}
	return be16(b)
}

func (d *decoder) u4() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return be32(b)
}
