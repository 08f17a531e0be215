// Package ptb decodes and validates the Programmable Transaction
// Block a client submits to prove it is entitled to a key: a minimal,
// locally-owned subset of Sui's PTB wire types, BCS-decodable and
// validated against the seal_approve* calling convention.
package ptb

import (
	"bytes"
	"errors"

	"github.com/sealhq/core/internal/bcs"
)

// ErrInvalidPTB covers every structural or policy violation a PTB can
// have: empty inputs/commands, a non-MoveCall command, a missing or
// malformed key id argument, a function name not starting with
// "seal_approve", or commands that disagree on package id.
var ErrInvalidPTB = errors.New("ptb: invalid programmable transaction block")

// ObjectID is a 32-byte Sui object identifier.
type ObjectID [32]byte

// CallArgKind tags the two CallArg variants this module decodes.
type CallArgKind byte

const (
	CallArgPure CallArgKind = iota
	CallArgObject
)

// CallArg is a transaction input: either raw BCS-encoded bytes (Pure)
// or a reference to an on-chain object (Object, opaque here).
type CallArg struct {
	Kind      CallArgKind
	PureBytes []byte
}

// ArgumentKind tags the Argument variants referencing a transaction
// input or a prior command's result.
type ArgumentKind byte

const (
	ArgumentInput ArgumentKind = iota
	ArgumentResult
	ArgumentNestedResult
	ArgumentGasCoin
)

// Argument references either an input slot or another command's
// output.
type Argument struct {
	Kind  ArgumentKind
	Input uint16
}

// MoveCall is the only Command variant this module accepts.
type MoveCall struct {
	Package   ObjectID
	Module    string
	Function  string
	Arguments []Argument
}

// CommandKind tags the Command variants this module can see; only
// MoveCall is ever valid for a Seal request.
type CommandKind byte

const (
	CommandMoveCall CommandKind = iota
	CommandOther
)

// Command is a single PTB instruction.
type Command struct {
	Kind CommandKind
	Call MoveCall
}

// ProgrammableTransaction is the decoded transaction body: its inputs
// and the sequence of commands operating on them.
type ProgrammableTransaction struct {
	Inputs   []CallArg
	Commands []Command
}

// KeyID is the inner identity byte string a seal_approve* call
// requests access to, extracted from its first argument.
type KeyID []byte

// Valid wraps a ProgrammableTransaction that has passed Validate,
// so callers can't accidentally act on an unchecked PTB.
type Valid struct {
	ptb ProgrammableTransaction
}

// Validate checks the PTB against the seal_approve* calling
// convention:
//  1. at least one input and one command
//  2. every command is a MoveCall
//  3. every call's first argument is an Input referencing a Pure
//     call arg (the key id)
//  4. every call's function name starts with "seal_approve"
//  5. every call uses the same package id (the first command's)
func Validate(p ProgrammableTransaction) (Valid, error) {
	if len(p.Inputs) == 0 || len(p.Commands) == 0 {
		return Valid{}, ErrInvalidPTB
	}

	first := p.Commands[0]
	if first.Kind != CommandMoveCall {
		return Valid{}, ErrInvalidPTB
	}
	pkgID := first.Call.Package

	for _, cmd := range p.Commands {
		if cmd.Kind != CommandMoveCall {
			return Valid{}, ErrInvalidPTB
		}
		if len(cmd.Call.Arguments) == 0 {
			return Valid{}, ErrInvalidPTB
		}
		if _, err := keyID(p, cmd.Call); err != nil {
			return Valid{}, err
		}
		if !hasSealApprovePrefix(cmd.Call.Function) {
			return Valid{}, ErrInvalidPTB
		}
		if cmd.Call.Package != pkgID {
			return Valid{}, ErrInvalidPTB
		}
	}

	return Valid{ptb: p}, nil
}

func hasSealApprovePrefix(function string) bool {
	const prefix = "seal_approve"
	return len(function) >= len(prefix) && function[:len(prefix)] == prefix
}

func keyID(p ProgrammableTransaction, call MoveCall) (KeyID, error) {
	if len(call.Arguments) == 0 {
		return nil, ErrInvalidPTB
	}
	arg := call.Arguments[0]
	if arg.Kind != ArgumentInput {
		return nil, ErrInvalidPTB
	}
	if int(arg.Input) >= len(p.Inputs) {
		return nil, ErrInvalidPTB
	}
	input := p.Inputs[arg.Input]
	if input.Kind != CallArgPure {
		return nil, ErrInvalidPTB
	}
	id, err := decodeBCSBytes(input.PureBytes)
	if err != nil {
		return nil, ErrInvalidPTB
	}
	return id, nil
}

// decodeBCSBytes decodes a Pure call arg's payload as a BCS-encoded
// Vec<u8>, which is how the key id is packed into the transaction.
func decodeBCSBytes(b []byte) ([]byte, error) {
	r := bcs.NewReader(b)
	out, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, bcs.ErrMalformed
	}
	return out, nil
}

// InnerIDs returns every seal_approve* call's key id, in command order.
func (v Valid) InnerIDs() []KeyID {
	ids := make([]KeyID, len(v.ptb.Commands))
	for i, cmd := range v.ptb.Commands {
		id, err := keyID(v.ptb, cmd.Call)
		if err != nil {
			panic("ptb: invariant violated: " + err.Error())
		}
		ids[i] = id
	}
	return ids
}

// PackageID returns the package id shared by every call in the PTB.
func (v Valid) PackageID() ObjectID {
	return v.ptb.Commands[0].Call.Package
}

// FullIDs prefixes every inner id with the full identity construction
// for firstPkgID (the package's first on-chain version), matching
// create_full_id: [len(dst)] || dst || firstPkgID || innerID.
func (v Valid) FullIDs(dst string, firstPkgID ObjectID) []KeyID {
	inner := v.InnerIDs()
	out := make([]KeyID, len(inner))
	for i, id := range inner {
		full := make([]byte, 0, 1+len(dst)+len(firstPkgID)+len(id))
		full = append(full, byte(len(dst)))
		full = append(full, dst...)
		full = append(full, firstPkgID[:]...)
		full = append(full, id...)
		out[i] = full
	}
	return out
}

// PTB returns the underlying transaction.
func (v Valid) PTB() ProgrammableTransaction { return v.ptb }

// Equal reports whether two key ids are byte-identical.
func (k KeyID) Equal(other KeyID) bool { return bytes.Equal(k, other) }
