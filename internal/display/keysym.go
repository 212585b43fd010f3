package display

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// keysymNames covers the keysyms the key map binds; everything else is
// reported by hex value.
var keysymNames = map[xproto.Keysym]string{
	0x0020: "space",
	0x002b: "plus",
	0x002d: "minus",
	0x003d: "equal",
	0xff1b: "escape",
	0xff0d: "enter",
	0xff09: "tab",
	0xff50: "home",
	0xff51: "left",
	0xff52: "up",
	0xff53: "right",
	0xff54: "down",
	0xffab: "plus",
	0xffad: "minus",
}

// KeysymName converts an X11 keysym to the key map vocabulary.
func KeysymName(sym xproto.Keysym) string {
	switch {
	case sym >= 'a' && sym <= 'z', sym >= '0' && sym <= '9':
		return string(rune(sym))
	case sym >= 'A' && sym <= 'Z':
		return strings.ToLower(string(rune(sym)))
	case sym >= 0xffb0 && sym <= 0xffb9: // keypad digits
		return string(rune('0' + sym - 0xffb0))
	case sym >= 0xffbe && sym <= 0xffc9:
		return fmt.Sprintf("f%d", sym-0xffbe+1)
	}
	if name, ok := keysymNames[sym]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", uint32(sym))
}
