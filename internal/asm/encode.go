package asm

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Unit is the serialized form of one compiled input file.
type Unit struct {
	Path  string      `msgpack:"path"`
	Funcs []*Function `msgpack:"funcs"`
}

// Encode writes u as msgpack.
func Encode(w io.Writer, u *Unit) error {
	return msgpack.NewEncoder(w).Encode(u)
}

// Decode reads a Unit written by Encode.
func Decode(r io.Reader) (*Unit, error) {
	var u Unit
	if err := msgpack.NewDecoder(r).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
