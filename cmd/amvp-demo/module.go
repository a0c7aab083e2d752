package main

import (
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/engine"
)

// newReferenceModule builds an engine Context with every handler family
// wired to this demo's stdlib-backed reference crypto, the way a real
// operator would wire their certified module. The parameter registrations
// mirror what the reference implementations actually support. obs may be
// nil when no lifecycle events are wanted.
func newReferenceModule(obs engine.Observer) (*engine.Context, error) {
	ctx, err := engine.NewContext(engine.Config{Observer: obs})
	if err != nil {
		return nil, err
	}

	type step func() error
	steps := []step{
		// Symmetric block ciphers
		func() error { return ctx.Enable(catalog.AESCBC, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.AESCBC, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.Enable(catalog.AESECB, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.AESECB, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.Enable(catalog.AESCTR, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.AESCTR, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.Enable(catalog.AESOFB, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.AESOFB, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.Enable(catalog.AESCFB128, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.AESCFB128, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.Enable(catalog.AESXTS, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.AESXTS, capability.ParamKeyLen, 256, 512) },
		func() error { return ctx.Enable(catalog.TDESCBC, newBlockCipher()) },
		func() error { return ctx.SetIntParm(catalog.TDESCBC, capability.ParamKeyLen, 192) },

		// AEAD
		func() error { return ctx.Enable(catalog.AESGCM, newAEAD()) },
		func() error { return ctx.SetIntParm(catalog.AESGCM, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.SetIntParm(catalog.AESGCM, capability.ParamTagLen, 96, 104, 112, 120, 128) },
		func() error { return ctx.SetDomain(catalog.AESGCM, capability.ParamAADLen, 0, 65536, 8) },
		func() error { return ctx.SetPrereq(catalog.AESGCM, catalog.AESECB, "A0001") },
		func() error { return ctx.Enable(catalog.AESCCM, newAEAD()) },
		func() error { return ctx.SetIntParm(catalog.AESCCM, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.SetIntParm(catalog.AESCCM, capability.ParamTagLen, 32, 48, 64, 80, 96, 112, 128) },
		func() error { return ctx.SetDomain(catalog.AESCCM, capability.ParamAADLen, 0, 65536, 8) },

		// Key-wrap
		func() error { return ctx.Enable(catalog.AESKW, newKeyWrap()) },
		func() error { return ctx.SetIntParm(catalog.AESKW, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.SetEnumParm(catalog.AESKW, capability.ParamInverse, "inverse") },
		func() error { return ctx.Enable(catalog.AESKWP, newKeyWrap()) },
		func() error { return ctx.SetIntParm(catalog.AESKWP, capability.ParamKeyLen, 128, 192, 256) },

		// MAC
		func() error { return ctx.Enable(catalog.HMACSHA2_256, newHMAC()) },
		func() error { return ctx.SetDomain(catalog.HMACSHA2_256, capability.ParamKeyLen, 8, 524288, 8) },
		func() error { return ctx.SetDomain(catalog.HMACSHA2_256, capability.ParamMsgLen, 0, 65536, 8) },
		func() error { return ctx.SetDomain(catalog.HMACSHA2_256, capability.ParamTagLen, 32, 256, 8) },
		func() error { return ctx.SetPrereq(catalog.HMACSHA2_256, catalog.AESECB, "C0002") },
		func() error { return ctx.Enable(catalog.HMACSHA2_512, newHMAC()) },
		func() error { return ctx.SetDomain(catalog.HMACSHA2_512, capability.ParamKeyLen, 8, 524288, 8) },
		func() error { return ctx.SetDomain(catalog.HMACSHA2_512, capability.ParamMsgLen, 0, 65536, 8) },
		func() error { return ctx.SetDomain(catalog.HMACSHA2_512, capability.ParamTagLen, 32, 512, 8) },
		func() error { return ctx.Enable(catalog.HMACSHA3_256, newHMAC()) },
		func() error { return ctx.SetDomain(catalog.HMACSHA3_256, capability.ParamKeyLen, 8, 524288, 8) },
		func() error { return ctx.SetDomain(catalog.HMACSHA3_256, capability.ParamMsgLen, 0, 65536, 8) },
		func() error { return ctx.SetDomain(catalog.HMACSHA3_256, capability.ParamTagLen, 32, 256, 8) },
		func() error { return ctx.Enable(catalog.CMACAES, newCMAC()) },
		func() error { return ctx.SetIntParm(catalog.CMACAES, capability.ParamKeyLen, 128, 192, 256) },
		func() error { return ctx.SetDomain(catalog.CMACAES, capability.ParamMsgLen, 0, 65536, 8) },
		func() error { return ctx.SetDomain(catalog.CMACAES, capability.ParamTagLen, 32, 128, 8) },

		// RSA KeyGen
		func() error { return ctx.Enable(catalog.RSAKeyGen, newRSAKeyGen()) },
		func() error { return ctx.SetIntParm(catalog.RSAKeyGen, capability.ParamModulo, 2048, 3072, 4096) },
		func() error { return ctx.SetEnumParm(catalog.RSAKeyGen, capability.ParamRandPQ, "B.3.3") },
		func() error { return ctx.SetEnumParm(catalog.RSAKeyGen, capability.ParamPrimeTest, "tblC2", "tblC3") },

		// KDA
		func() error { return ctx.Enable(catalog.KDAHKDF, newKDA()) },
		func() error { return ctx.SetDomain(catalog.KDAHKDF, capability.ParamLLen, 8, 16384, 8) },
		func() error { return ctx.SetPrereq(catalog.KDAHKDF, catalog.HMACSHA2_256, "H0003") },
		func() error { return ctx.Enable(catalog.KDAOneStep, newKDA()) },
		func() error { return ctx.SetDomain(catalog.KDAOneStep, capability.ParamLLen, 8, 16384, 8) },
		func() error { return ctx.Enable(catalog.KDATwoStep, newKDA()) },
		func() error { return ctx.SetDomain(catalog.KDATwoStep, capability.ParamLLen, 8, 16384, 8) },

		// KDF108
		func() error { return ctx.Enable(catalog.KDF108, newKDF108()) },
		func() error {
			return ctx.SetEnumParm(catalog.KDF108, capability.ParamKDFMode, "counter", "feedback")
		},
		func() error {
			return ctx.SetEnumParm(catalog.KDF108, capability.ParamMacMode, "HMAC-SHA2-256", "HMAC-SHA2-512", "CMAC-AES")
		},
		func() error { return ctx.SetIntParm(catalog.KDF108, capability.ParamCounterLen, 8, 16, 24, 32) },
	}

	for _, s := range steps {
		if err := s(); err != nil {
			_ = ctx.Close()
			return nil, err
		}
	}
	return ctx, nil
}
