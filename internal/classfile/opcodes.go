package classfile

// Opcodes the reader treats specially. The rest only matter for their length.
const (
	opLdc             = 0x12
	opLdcW            = 0x13
	opIinc            = 0x84
	opTableswitch     = 0xaa
	opLookupswitch    = 0xab
	opInvokevirtual   = 0xb6
	opInvokespecial   = 0xb7
	opInvokestatic    = 0xb8
	opInvokeinterface = 0xb9
	opInvokedynamic   = 0xba
	opWide            = 0xc4
)

// opLengths holds the fixed encoded length (opcode included) of every defined
// opcode. Zero marks an undefined opcode or one with a variable length.
var opLengths = func() [256]uint8 {
	var l [256]uint8
	set := func(from, to int, n uint8) {
		for op := from; op <= to; op++ {
			l[op] = n
		}
	}
	set(0x00, 0x0f, 1) // nop .. dconst_1
	l[0x10] = 2        // bipush
	l[0x11] = 3        // sipush
	l[0x12] = 2        // ldc
	l[0x13] = 3        // ldc_w
	l[0x14] = 3        // ldc2_w
	set(0x15, 0x19, 2) // iload .. aload
	set(0x1a, 0x35, 1) // iload_0 .. saload
	set(0x36, 0x3a, 2) // istore .. astore
	set(0x3b, 0x83, 1) // istore_0 .. lxor
	l[0x84] = 3        // iinc
	set(0x85, 0x98, 1) // i2l .. dcmpg
	set(0x99, 0xa8, 3) // ifeq .. jsr
	l[0xa9] = 2        // ret
	set(0xac, 0xb1, 1) // ireturn .. return
	set(0xb2, 0xb8, 3) // getstatic .. invokestatic
	l[0xb9] = 5        // invokeinterface
	l[0xba] = 5        // invokedynamic
	l[0xbb] = 3        // new
	l[0xbc] = 2        // newarray
	l[0xbd] = 3        // anewarray
	l[0xbe] = 1        // arraylength
	l[0xbf] = 1        // athrow
	l[0xc0] = 3        // checkcast
	l[0xc1] = 3        // instanceof
	l[0xc2] = 1        // monitorenter
	l[0xc3] = 1        // monitorexit
	l[0xc5] = 4        // multianewarray
	l[0xc6] = 3        // ifnull
	l[0xc7] = 3        // ifnonnull
	l[0xc8] = 5        // goto_w
	l[0xc9] = 5        // jsr_w
	l[0xca] = 1        // breakpoint
	l[0xfe] = 1        // impdep1
	l[0xff] = 1        // impdep2
	return l
}()
