package exec

// ArithOp enumerates arithmetic operations.
type ArithOp uint8

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithUDiv
	ArithSDiv
	ArithURem
	ArithSRem
	ArithFAdd
	ArithFSub
	ArithFMul
	ArithFDiv
	ArithFRem
)

var arithNames = [...]string{
	ArithAdd:  "add",
	ArithSub:  "sub",
	ArithMul:  "mul",
	ArithUDiv: "udiv",
	ArithSDiv: "sdiv",
	ArithURem: "urem",
	ArithSRem: "srem",
	ArithFAdd: "fadd",
	ArithFSub: "fsub",
	ArithFMul: "fmul",
	ArithFDiv: "fdiv",
	ArithFRem: "frem",
}

func (op ArithOp) String() string {
	if int(op) < len(arithNames) {
		return arithNames[op]
	}
	return "arith?"
}

// ParseArithOp resolves an arithmetic opcode from its textual form.
func ParseArithOp(s string) (ArithOp, bool) {
	for i, name := range arithNames {
		if name == s {
			return ArithOp(i), true
		}
	}
	return 0, false
}

// LogicOp enumerates bitwise and shift operations.
type LogicOp uint8

const (
	LogicShl LogicOp = iota
	LogicLShr
	LogicAShr
	LogicAnd
	LogicOr
	LogicXor
)

var logicNames = [...]string{
	LogicShl:  "shl",
	LogicLShr: "lshr",
	LogicAShr: "ashr",
	LogicAnd:  "and",
	LogicOr:   "or",
	LogicXor:  "xor",
}

func (op LogicOp) String() string {
	if int(op) < len(logicNames) {
		return logicNames[op]
	}
	return "logic?"
}

// ParseLogicOp resolves a bitwise opcode from its textual form.
func ParseLogicOp(s string) (LogicOp, bool) {
	for i, name := range logicNames {
		if name == s {
			return LogicOp(i), true
		}
	}
	return 0, false
}

// CmpPred enumerates comparison predicates. Integer and floating-point
// predicates share the enumeration; Float reports which family one is.
type CmpPred uint8

const (
	CmpEQ CmpPred = iota
	CmpNE
	CmpUGT
	CmpUGE
	CmpULT
	CmpULE
	CmpSGT
	CmpSGE
	CmpSLT
	CmpSLE

	CmpFalse
	CmpOEQ
	CmpOGT
	CmpOGE
	CmpOLT
	CmpOLE
	CmpONE
	CmpORD
	CmpUEQ
	CmpFUGT
	CmpFUGE
	CmpFULT
	CmpFULE
	CmpUNE
	CmpUNO
	CmpTrue
)

var intPredNames = [...]string{
	CmpEQ:  "eq",
	CmpNE:  "ne",
	CmpUGT: "ugt",
	CmpUGE: "uge",
	CmpULT: "ult",
	CmpULE: "ule",
	CmpSGT: "sgt",
	CmpSGE: "sge",
	CmpSLT: "slt",
	CmpSLE: "sle",
}

var floatPredNames = map[CmpPred]string{
	CmpFalse: "false",
	CmpOEQ:   "oeq",
	CmpOGT:   "ogt",
	CmpOGE:   "oge",
	CmpOLT:   "olt",
	CmpOLE:   "ole",
	CmpONE:   "one",
	CmpORD:   "ord",
	CmpUEQ:   "ueq",
	CmpFUGT:  "ugt",
	CmpFUGE:  "uge",
	CmpFULT:  "ult",
	CmpFULE:  "ule",
	CmpUNE:   "une",
	CmpUNO:   "uno",
	CmpTrue:  "true",
}

// Float reports whether p is a floating-point predicate.
func (p CmpPred) Float() bool { return p >= CmpFalse }

func (p CmpPred) String() string {
	if p.Float() {
		if s, ok := floatPredNames[p]; ok {
			return s
		}
		return "fcmp?"
	}
	if int(p) < len(intPredNames) {
		return intPredNames[p]
	}
	return "icmp?"
}

// ParseIntPred resolves an integer comparison condition.
func ParseIntPred(s string) (CmpPred, bool) {
	for i, name := range intPredNames {
		if name == s {
			return CmpPred(i), true
		}
	}
	return 0, false
}

// ParseFloatPred resolves a floating-point comparison condition.
func ParseFloatPred(s string) (CmpPred, bool) {
	for p, name := range floatPredNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}

// CastOp enumerates conversion operations.
type CastOp uint8

const (
	CastTrunc CastOp = iota
	CastZExt
	CastSExt
	CastFPToUI
	CastFPToSI
	CastUIToFP
	CastSIToFP
	CastFPTrunc
	CastFPExt
	CastPtrToInt
	CastIntToPtr
	CastBitCast
	CastAddrSpaceCast
)

var castNames = [...]string{
	CastTrunc:         "trunc",
	CastZExt:          "zext",
	CastSExt:          "sext",
	CastFPToUI:        "fptoui",
	CastFPToSI:        "fptosi",
	CastUIToFP:        "uitofp",
	CastSIToFP:        "sitofp",
	CastFPTrunc:       "fptrunc",
	CastFPExt:         "fpext",
	CastPtrToInt:      "ptrtoint",
	CastIntToPtr:      "inttoptr",
	CastBitCast:       "bitcast",
	CastAddrSpaceCast: "addrspacecast",
}

func (op CastOp) String() string {
	if int(op) < len(castNames) {
		return castNames[op]
	}
	return "cast?"
}

// ParseCastOp resolves a conversion opcode from its textual form.
func ParseCastOp(s string) (CastOp, bool) {
	for i, name := range castNames {
		if name == s {
			return CastOp(i), true
		}
	}
	return 0, false
}
