package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Module-level content that is skipped
	NoteModuleAsm     Code = 1001
	NoteNamedMetadata Code = 1002
	NoteSkippedGlobal Code = 1003
	NoteComdatIgnored Code = 1004

	// Tolerated problems
	WarnUnresolvedAlias    Code = 2001
	WarnBitcodePlaceholder Code = 2002
	WarnUnknownConfigKey   Code = 2003
	WarnNoDataLayout       Code = 2004

	// Reported failures
	ErrTranslateFailed Code = 3001
	ErrDecodeFailed    Code = 3002
)

var codeDescription = map[Code]string{
	UnknownCode:            "unknown diagnostic",
	NoteModuleAsm:          "module-level inline assembly is ignored",
	NoteNamedMetadata:      "named metadata is ignored",
	NoteSkippedGlobal:      "intrinsic global is not allocated",
	NoteComdatIgnored:      "comdat selection is ignored",
	WarnUnresolvedAlias:    "alias could not be resolved",
	WarnBitcodePlaceholder: "unrecognised bitcode record",
	WarnUnknownConfigKey:   "unknown configuration key",
	WarnNoDataLayout:       "module has no data layout",
	ErrTranslateFailed:     "translation failed",
	ErrDecodeFailed:        "record stream could not be decoded",
}

// ID renders the code as N1001, W2001 or E3001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("N%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("W%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("E%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
