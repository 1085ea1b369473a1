// Package classfiletest synthesizes minimal but valid class files for tests.
package classfiletest

import (
	"encoding/binary"
	"fmt"
)

// Builder assembles a class file. Names use internal form ("p/q/A").
type Builder struct {
	pool      pool
	name      string
	super     string
	ifaces    []string
	access    uint16
	methods   []*Method
	outer     string
	members   []string
	nestHost  string
	noSuper   bool
	major     uint16
	extraAttr bool
	ownSelf   bool
}

// Method accumulates the bytecode of one method.
type Method struct {
	b        *Builder
	name     string
	desc     string
	code     []byte
	abstract bool
}

// New starts a public class extending java/lang/Object.
func New(name string) *Builder {
	return &Builder{
		pool:   newPool(),
		name:   name,
		super:  "java/lang/Object",
		access: 0x0021,
		major:  52,
	}
}

// Name returns the internal name of the class being built.
func (b *Builder) Name() string { return b.name }

// Super sets the superclass.
func (b *Builder) Super(name string) *Builder {
	b.super = name
	b.noSuper = false
	return b
}

// NoSuper clears the superclass, as in java/lang/Object itself.
func (b *Builder) NoSuper() *Builder {
	b.noSuper = true
	return b
}

// Implements adds interfaces.
func (b *Builder) Implements(names ...string) *Builder {
	b.ifaces = append(b.ifaces, names...)
	return b
}

// AsInterface marks the class as an interface.
func (b *Builder) AsInterface() *Builder {
	b.access = 0x0601
	return b
}

// AsModule turns the class into a module descriptor (ACC_MODULE, no superclass).
func (b *Builder) AsModule() *Builder {
	b.access = 0x8000
	b.noSuper = true
	return b
}

// SeparateSelfEntry makes the InnerClasses entry for this class point at its
// own CONSTANT_Class entry instead of reusing this_class.
func (b *Builder) SeparateSelfEntry() *Builder {
	b.ownSelf = true
	return b
}

// NestedIn adds an InnerClasses attribute describing this class as a member of outer.
func (b *Builder) NestedIn(outer string) *Builder {
	b.outer = outer
	return b
}

// Member lists inner as a member class of this class in InnerClasses.
func (b *Builder) Member(inner string) *Builder {
	b.members = append(b.members, inner)
	return b
}

// NestHost adds a NestHost attribute.
func (b *Builder) NestHost(host string) *Builder {
	b.nestHost = host
	return b
}

// WithSourceFile adds a SourceFile attribute, which the reader must skip.
func (b *Builder) WithSourceFile() *Builder {
	b.extraAttr = true
	return b
}

// Method starts a new method with a Code attribute.
func (b *Builder) Method(name, desc string) *Method {
	m := &Method{b: b, name: name, desc: desc}
	b.methods = append(b.methods, m)
	return m
}

// AbstractMethod adds a method without a Code attribute.
func (b *Builder) AbstractMethod(name, desc string) *Builder {
	b.methods = append(b.methods, &Method{b: b, name: name, desc: desc, abstract: true})
	return b
}

// Invoke emits invokevirtual on owner.name.
func (m *Method) Invoke(owner, name, desc string) *Method {
	return m.ref(0xb6, m.b.pool.member(10, owner, name, desc))
}

// InvokeSpecial emits invokespecial on owner.name.
func (m *Method) InvokeSpecial(owner, name, desc string) *Method {
	return m.ref(0xb7, m.b.pool.member(10, owner, name, desc))
}

// InvokeStatic emits invokestatic on owner.name.
func (m *Method) InvokeStatic(owner, name, desc string) *Method {
	return m.ref(0xb8, m.b.pool.member(10, owner, name, desc))
}

// InvokeInterface emits invokeinterface on owner.name.
func (m *Method) InvokeInterface(owner, name, desc string) *Method {
	idx := m.b.pool.member(11, owner, name, desc)
	m.code = append(m.code, 0xb9, byte(idx>>8), byte(idx), 1, 0)
	return m
}

// ClassLiteral emits ldc (or ldc_w when the index does not fit a byte) of a class constant.
func (m *Method) ClassLiteral(name string) *Method {
	return m.ldc(m.b.pool.class(name))
}

// ClassLiteralWide always emits ldc_w of a class constant.
func (m *Method) ClassLiteralWide(name string) *Method {
	idx := m.b.pool.class(name)
	m.code = append(m.code, 0x13, byte(idx>>8), byte(idx))
	return m
}

// StringLiteral emits ldc of a string constant.
func (m *Method) StringLiteral(s string) *Method {
	return m.ldc(m.b.pool.str(s))
}

// LongConstant emits ldc2_w of a long constant, which occupies two pool slots.
func (m *Method) LongConstant(v int64) *Method {
	idx := m.b.pool.long(v)
	m.code = append(m.code, 0x14, byte(idx>>8), byte(idx))
	return m
}

// FieldGet emits getstatic, which references a class without calling it.
func (m *Method) FieldGet(owner, name, desc string) *Method {
	return m.ref(0xb2, m.b.pool.member(9, owner, name, desc))
}

// Raw appends raw bytecode.
func (m *Method) Raw(code ...byte) *Method {
	m.code = append(m.code, code...)
	return m
}

// TableSwitch emits iconst_0 then a tableswitch over [low, high] whose targets all
// fall through to the next instruction, padded relative to the code start.
func (m *Method) TableSwitch(low, high int32) *Method {
	m.code = append(m.code, 0x03) // iconst_0
	start := len(m.code)
	m.code = append(m.code, 0xaa)
	for len(m.code)%4 != 0 {
		m.code = append(m.code, 0)
	}
	n := int(high - low + 1)
	end := len(m.code) + 12 + 4*n
	off := int32(end - start)
	m.code = binary.BigEndian.AppendUint32(m.code, uint32(off))
	m.code = binary.BigEndian.AppendUint32(m.code, uint32(low))
	m.code = binary.BigEndian.AppendUint32(m.code, uint32(high))
	for i := 0; i < n; i++ {
		m.code = binary.BigEndian.AppendUint32(m.code, uint32(off))
	}
	return m
}

// LookupSwitch emits iconst_0 then a lookupswitch with the given keys.
func (m *Method) LookupSwitch(keys ...int32) *Method {
	m.code = append(m.code, 0x03)
	start := len(m.code)
	m.code = append(m.code, 0xab)
	for len(m.code)%4 != 0 {
		m.code = append(m.code, 0)
	}
	end := len(m.code) + 8 + 8*len(keys)
	off := int32(end - start)
	m.code = binary.BigEndian.AppendUint32(m.code, uint32(off))
	m.code = binary.BigEndian.AppendUint32(m.code, uint32(len(keys)))
	for _, k := range keys {
		m.code = binary.BigEndian.AppendUint32(m.code, uint32(k))
		m.code = binary.BigEndian.AppendUint32(m.code, uint32(off))
	}
	return m
}

// Return emits a void return.
func (m *Method) Return() *Method {
	m.code = append(m.code, 0xb1)
	return m
}

// Done returns the owning builder.
func (m *Method) Done() *Builder { return m.b }

func (m *Method) ref(op byte, idx uint16) *Method {
	m.code = append(m.code, op, byte(idx>>8), byte(idx))
	return m
}

func (m *Method) ldc(idx uint16) *Method {
	if idx > 0xff {
		m.code = append(m.code, 0x13, byte(idx>>8), byte(idx))
		return m
	}
	m.code = append(m.code, 0x12, byte(idx))
	return m
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	thisIdx := b.pool.class(b.name)
	var superIdx uint16
	if !b.noSuper {
		superIdx = b.pool.class(b.super)
	}
	ifaceIdx := make([]uint16, len(b.ifaces))
	for i, n := range b.ifaces {
		ifaceIdx[i] = b.pool.class(n)
	}

	var methods []byte
	for _, m := range b.methods {
		methods = u2(methods, 0x0001)
		methods = u2(methods, b.pool.utf8(m.name))
		methods = u2(methods, b.pool.utf8(m.desc))
		if m.abstract {
			methods = u2(methods, 0)
			continue
		}
		methods = u2(methods, 1)
		var code []byte
		code = u2(code, 4) // max_stack
		code = u2(code, 4) // max_locals
		code = binary.BigEndian.AppendUint32(code, uint32(len(m.code)))
		code = append(code, m.code...)
		code = u2(code, 0) // exception_table_length
		code = u2(code, 0) // attributes_count
		methods = attribute(methods, b.pool.utf8("Code"), code)
	}

	var attrs [][]byte
	if b.outer != "" || len(b.members) > 0 {
		type entry struct{ inner, outer string }
		var entries []entry
		if b.outer != "" {
			entries = append(entries, entry{b.name, b.outer})
		}
		for _, m := range b.members {
			entries = append(entries, entry{m, b.name})
		}
		body := u2(nil, uint16(len(entries)))
		for _, e := range entries {
			if b.ownSelf && e.inner == b.name {
				body = u2(body, b.pool.classCopy(e.inner))
			} else {
				body = u2(body, b.pool.class(e.inner))
			}
			body = u2(body, b.pool.class(e.outer))
			body = u2(body, b.pool.utf8(simpleName(e.inner)))
			body = u2(body, 0x0009)
		}
		attrs = append(attrs, attribute(nil, b.pool.utf8("InnerClasses"), body))
	}
	if b.nestHost != "" {
		attrs = append(attrs, attribute(nil, b.pool.utf8("NestHost"), u2(nil, b.pool.class(b.nestHost))))
	}
	if b.extraAttr {
		attrs = append(attrs, attribute(nil, b.pool.utf8("SourceFile"), u2(nil, b.pool.utf8(simpleName(b.name)+".java"))))
	}

	// One field with an attribute, to exercise skipping.
	var fields []byte
	fields = u2(fields, 1)
	fields = u2(fields, 0x0002)
	fields = u2(fields, b.pool.utf8("field"))
	fields = u2(fields, b.pool.utf8("I"))
	fields = u2(fields, 1)
	fields = attribute(fields, b.pool.utf8("Synthetic"), nil)

	var out []byte
	out = binary.BigEndian.AppendUint32(out, 0xCAFEBABE)
	out = u2(out, 0)
	out = u2(out, b.major)
	out = append(out, b.pool.bytes()...)
	out = u2(out, b.access)
	out = u2(out, thisIdx)
	out = u2(out, superIdx)
	out = u2(out, uint16(len(ifaceIdx)))
	for _, idx := range ifaceIdx {
		out = u2(out, idx)
	}
	out = append(out, fields...)

	out = u2(out, uint16(len(b.methods)))
	out = append(out, methods...)
	out = u2(out, uint16(len(attrs)))
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

// pool is an append-only constant pool with de-duplication.
type pool struct {
	entries [][]byte
	index   map[string]uint16
	next    uint16
}

func newPool() pool {
	return pool{index: make(map[string]uint16), next: 1}
}

func (p *pool) add(key string, entry []byte, slots uint16) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := p.next
	p.entries = append(p.entries, entry)
	p.index[key] = idx
	p.next += slots
	return idx
}

func (p *pool) utf8(s string) uint16 {
	e := []byte{1}
	e = u2(e, uint16(len(s)))
	e = append(e, s...)
	return p.add("u:"+s, e, 1)
}

func (p *pool) class(name string) uint16 {
	n := p.utf8(name)
	return p.add("c:"+name, u2([]byte{7}, n), 1)
}

// classCopy adds a second CONSTANT_Class entry for name.
func (p *pool) classCopy(name string) uint16 {
	n := p.utf8(name)
	return p.add("c2:"+name, u2([]byte{7}, n), 1)
}

func (p *pool) str(s string) uint16 {
	n := p.utf8(s)
	return p.add("s:"+s, u2([]byte{8}, n), 1)
}

func (p *pool) long(v int64) uint16 {
	e := binary.BigEndian.AppendUint64([]byte{5}, uint64(v))
	return p.add(fmt.Sprintf("j:%d", v), e, 2)
}

func (p *pool) member(tag byte, owner, name, desc string) uint16 {
	c := p.class(owner)
	nt := p.add("nt:"+name+":"+desc, u2(u2([]byte{12}, p.utf8(name)), p.utf8(desc)), 1)
	return p.add(fmt.Sprintf("m%d:%s.%s%s", tag, owner, name, desc), u2(u2([]byte{tag}, c), nt), 1)
}

func (p *pool) bytes() []byte {
	out := u2(nil, p.next)
	for _, e := range p.entries {
		out = append(out, e...)
	}
	return out
}

func u2(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func attribute(b []byte, nameIdx uint16, body []byte) []byte {
	b = u2(b, nameIdx)
	b = binary.BigEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}

func simpleName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
