// Package wasmtest assembles tiny guest modules for host module tests.
package wasmtest

import (
	"github.com/tetratelabs/wazero/api"
)

// Memory is a module exporting a single page of memory as "memory".
var Memory = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

// Reexport returns a module that imports module.name with the given
// signature and exports it under the same name, so a test can call a host
// function the way a guest does.
func Reexport(module, name string, params, results []api.ValueType) []byte {
	typ := []byte{0x01, 0x60, byte(len(params))}
	typ = append(typ, params...)
	typ = append(typ, byte(len(results)))
	typ = append(typ, results...)

	imp := []byte{0x01}
	imp = appendName(imp, module)
	imp = appendName(imp, name)
	imp = append(imp, 0x00, 0x00)

	exp := []byte{0x01}
	exp = appendName(exp, name)
	exp = append(exp, 0x00, 0x00)

	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	bin = appendSection(bin, 1, typ)
	bin = appendSection(bin, 2, imp)
	bin = appendSection(bin, 7, exp)
	return bin
}

func appendName(b []byte, s string) []byte {
	b = appendULEB(b, uint32(len(s)))
	return append(b, s...)
}

func appendSection(b []byte, id byte, content []byte) []byte {
	b = append(b, id)
	b = appendULEB(b, uint32(len(content)))
	return append(b, content...)
}

func appendULEB(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}
