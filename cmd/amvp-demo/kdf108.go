package main

import (
	"crypto/hmac"
	"encoding/binary"
	"fmt"

	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/handlers/kdf108"
)

// kbkdf implements kdf108.Callback: counter and feedback mode over an
// HMAC or CMAC-AES PRF. The module composes a constant fixedData per
// derivation and reports it back for the authority's independent check.
type kbkdf struct{}

func newKDF108() *kbkdf { return &kbkdf{} }

var _ kdf108.Callback = (*kbkdf)(nil)

var kbkdfFixedData = []byte("amvp-demo kbkdf fixed data")

// prf computes one PRF invocation over data with keyIn.
func (k *kbkdf) prf(macMode catalog.MacMode, keyIn, data []byte) ([]byte, error) {
	if macMode == catalog.MacCMACAES {
		return (&cmacImpl{}).Mac(catalog.CMACAES, keyIn, data)
	}
	newHash, err := macHash(macMode)
	if err != nil {
		return nil, err
	}
	h := hmac.New(newHash, keyIn)
	h.Write(data)
	return h.Sum(nil), nil
}

func (k *kbkdf) Derive(p *kdf108.Params) (*kdf108.Result, error) {
	outLen := p.KeyOutBits / 8
	fixedData := kbkdfFixedData

	var out []byte
	switch p.Mode {
	case catalog.KDF108Counter:
		var counter uint64
		for len(out) < outLen {
			counter++
			data := composeCounterInput(p.CounterLocation, p.CounterLen, counter, fixedData)
			block, err := k.prf(p.MacMode, p.KeyIn, data)
			if err != nil {
				return nil, err
			}
			out = append(out, block...)
		}

	case catalog.KDF108Feedback:
		prev := append([]byte(nil), p.IV...)
		var counter uint32
		for len(out) < outLen {
			counter++
			data := append([]byte(nil), prev...)
			var c [4]byte
			binary.BigEndian.PutUint32(c[:], counter)
			data = append(data, c[:]...)
			data = append(data, fixedData...)
			block, err := k.prf(p.MacMode, p.KeyIn, data)
			if err != nil {
				return nil, err
			}
			out = append(out, block...)
			prev = block
		}

	case catalog.KDF108DoublePipeline:
		a := append([]byte(nil), fixedData...)
		var counter uint32
		for len(out) < outLen {
			counter++
			next, err := k.prf(p.MacMode, p.KeyIn, a)
			if err != nil {
				return nil, err
			}
			a = next
			data := append(append([]byte(nil), a...), fixedData...)
			var c [4]byte
			binary.BigEndian.PutUint32(c[:], counter)
			data = append(data, c[:]...)
			block, err := k.prf(p.MacMode, p.KeyIn, data)
			if err != nil {
				return nil, err
			}
			out = append(out, block...)
		}

	default:
		return nil, fmt.Errorf("reference module does not implement kdfMode %s", p.Mode)
	}

	res := &kdf108.Result{KeyOut: out[:outLen], FixedData: fixedData}
	if p.CounterLocation == catalog.CounterMiddleFixedData {
		res.BreakLocation = len(fixedData) / 2
	}
	return res, nil
}

// composeCounterInput places the big-endian counter of counterLen bits
// before, after, or in the middle of fixedData.
func composeCounterInput(loc catalog.CounterLocation, counterLen int, counter uint64, fixedData []byte) []byte {
	cBytes := counterLen / 8
	if cBytes == 0 {
		cBytes = 4
	}
	c := make([]byte, cBytes)
	for i := cBytes - 1; i >= 0; i-- {
		c[i] = byte(counter)
		counter >>= 8
	}

	switch loc {
	case catalog.CounterAfterFixedData:
		return append(append([]byte(nil), fixedData...), c...)
	case catalog.CounterMiddleFixedData:
		mid := len(fixedData) / 2
		out := append([]byte(nil), fixedData[:mid]...)
		out = append(out, c...)
		return append(out, fixedData[mid:]...)
	default: // before fixed data
		return append(c, fixedData...)
	}
}
