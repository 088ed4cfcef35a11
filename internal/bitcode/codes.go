package bitcode

import (
	"strconv"
	"strings"
)

// RecordID is the code of a constants-block record.
type RecordID uint64

const (
	RecSetType        RecordID = 1
	RecNull           RecordID = 2
	RecUndef          RecordID = 3
	RecInteger        RecordID = 4
	RecWideInteger    RecordID = 5
	RecFloat          RecordID = 6
	RecAggregate      RecordID = 7
	RecString         RecordID = 8
	RecCString        RecordID = 9
	RecBinop          RecordID = 10
	RecCast           RecordID = 11
	RecGEP            RecordID = 12
	RecSelect         RecordID = 13
	RecExtractElement RecordID = 14
	RecInsertElement  RecordID = 15
	RecShuffleVector  RecordID = 16
	RecCmp            RecordID = 17
	RecInlineAsmOld   RecordID = 18
	RecShuffleVecEx   RecordID = 19
	RecInBoundsGEP    RecordID = 20
	RecBlockAddress   RecordID = 21
	RecData           RecordID = 22
	RecInlineAsm      RecordID = 23
)

var recordNames = map[RecordID]string{
	RecSetType:        "SETTYPE",
	RecNull:           "NULL",
	RecUndef:          "UNDEF",
	RecInteger:        "INTEGER",
	RecWideInteger:    "WIDE_INTEGER",
	RecFloat:          "FLOAT",
	RecAggregate:      "AGGREGATE",
	RecString:         "STRING",
	RecCString:        "CSTRING",
	RecBinop:          "CE_BINOP",
	RecCast:           "CE_CAST",
	RecGEP:            "CE_GEP",
	RecSelect:         "CE_SELECT",
	RecExtractElement: "CE_EXTRACTELT",
	RecInsertElement:  "CE_INSERTELT",
	RecShuffleVector:  "CE_SHUFFLEVEC",
	RecCmp:            "CE_CMP",
	RecInlineAsmOld:   "INLINEASM_OLD",
	RecShuffleVecEx:   "CE_SHUFVEC_EX",
	RecInBoundsGEP:    "CE_INBOUNDS_GEP",
	RecBlockAddress:   "BLOCKADDRESS",
	RecData:           "DATA",
	RecInlineAsm:      "INLINEASM",
}

func (id RecordID) String() string {
	if s, ok := recordNames[id]; ok {
		return s
	}
	return "RECORD_" + strconv.FormatUint(uint64(id), 10)
}

// ParseRecordID accepts a record name such as "CE_BINOP" or a decimal code.
func ParseRecordID(s string) (RecordID, bool) {
	up := strings.ToUpper(s)
	for id, name := range recordNames {
		if name == up {
			return id, true
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return RecordID(n), true
}

// DecodeSigned undoes the sign folding of signed record operands: the low
// bit carries the sign, the remaining bits the magnitude.
func DecodeSigned(v uint64) int64 {
	if v&1 == 0 {
		return int64(v >> 1)
	}
	if v != 1 {
		return -int64(v >> 1)
	}
	// "-0" encodes the minimum value
	return -1 << 63
}

// EncodeSigned is the inverse of DecodeSigned.
func EncodeSigned(v int64) uint64 {
	if v == -1<<63 {
		return 1
	}
	if v < 0 {
		return uint64(-v)<<1 | 1
	}
	return uint64(v) << 1
}
