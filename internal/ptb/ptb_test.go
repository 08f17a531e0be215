package ptb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealhq/core/internal/bcs"
	"github.com/sealhq/core/internal/ptb"
)

func pureBytesOf(b []byte) []byte {
	w := bcs.NewWriter()
	w.WriteBytes(b)
	return w.Bytes()
}

func moveCallPTB(pkgID ptb.ObjectID, calls []struct {
	Module, Function string
}) ptb.ProgrammableTransaction {
	id := []byte{1, 2, 3, 4}
	p := ptb.ProgrammableTransaction{
		Inputs: []ptb.CallArg{{Kind: ptb.CallArgPure, PureBytes: pureBytesOf(id)}},
	}
	for _, c := range calls {
		p.Commands = append(p.Commands, ptb.Command{
			Kind: ptb.CommandMoveCall,
			Call: ptb.MoveCall{
				Package:   pkgID,
				Module:    c.Module,
				Function:  c.Function,
				Arguments: []ptb.Argument{{Kind: ptb.ArgumentInput, Input: 0}},
			},
		})
	}
	return p
}

func TestValid(t *testing.T) {
	pkgID := ptb.ObjectID{1}
	p := moveCallPTB(pkgID, []struct{ Module, Function string }{
		{"bla", "seal_approve_x"},
		{"bla2", "seal_approve_y"},
	})

	valid, err := ptb.Validate(p)
	require.NoError(t, err)
	assert.Equal(t, pkgID, valid.PackageID())
	ids := valid.InnerIDs()
	require.Len(t, ids, 2)
	assert.Equal(t, []byte{1, 2, 3, 4}, []byte(ids[0]))
	assert.Equal(t, []byte{1, 2, 3, 4}, []byte(ids[1]))
}

func TestInvalidEmptyPTB(t *testing.T) {
	_, err := ptb.Validate(ptb.ProgrammableTransaction{})
	assert.ErrorIs(t, err, ptb.ErrInvalidPTB)
}

func TestInvalidNoArguments(t *testing.T) {
	p := ptb.ProgrammableTransaction{
		Inputs: []ptb.CallArg{{Kind: ptb.CallArgPure, PureBytes: pureBytesOf([]byte{1})}},
		Commands: []ptb.Command{{
			Kind: ptb.CommandMoveCall,
			Call: ptb.MoveCall{Package: ptb.ObjectID{1}, Module: "bla", Function: "seal_approve"},
		}},
	}
	_, err := ptb.Validate(p)
	assert.ErrorIs(t, err, ptb.ErrInvalidPTB)
}

func TestInvalidNonMoveCall(t *testing.T) {
	pkgID := ptb.ObjectID{1}
	p := moveCallPTB(pkgID, []struct{ Module, Function string }{{"bla", "seal_approve_x"}})
	p.Commands = append(p.Commands, ptb.Command{Kind: ptb.CommandOther})

	_, err := ptb.Validate(p)
	assert.ErrorIs(t, err, ptb.ErrInvalidPTB)
}

func TestInvalidDifferentPackageIDs(t *testing.T) {
	p := moveCallPTB(ptb.ObjectID{1}, []struct{ Module, Function string }{{"bla", "seal_approve"}})
	second := moveCallPTB(ptb.ObjectID{2}, []struct{ Module, Function string }{{"bla", "seal_approve"}})
	p.Commands = append(p.Commands, second.Commands...)

	_, err := ptb.Validate(p)
	assert.ErrorIs(t, err, ptb.ErrInvalidPTB)
}

func TestInvalidFunctionPrefix(t *testing.T) {
	p := moveCallPTB(ptb.ObjectID{1}, []struct{ Module, Function string }{{"bla", "not_approve"}})
	_, err := ptb.Validate(p)
	assert.ErrorIs(t, err, ptb.ErrInvalidPTB)
}

func TestFullIDs(t *testing.T) {
	pkgID := ptb.ObjectID{1}
	p := moveCallPTB(pkgID, []struct{ Module, Function string }{{"bla", "seal_approve_x"}})
	valid, err := ptb.Validate(p)
	require.NoError(t, err)

	firstPkg := ptb.ObjectID{9}
	full := valid.FullIDs("SUI-SEAL-IBE-BLS12381-00", firstPkg)
	require.Len(t, full, 1)
	assert.Equal(t, byte(len("SUI-SEAL-IBE-BLS12381-00")), full[0][0])
}
