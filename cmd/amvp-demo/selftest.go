package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abkarcher/libamvp/pkg/metrics"
)

// selftestVectors is one small built-in vector set each for AES-CBC,
// AES-GCM, AES-KW, HMAC, CMAC, KDA-HKDF and KDF108, enough to prove the
// full parse-dispatch-callback-respond cycle works against the reference
// module. RSA-KeyGen, AES-CCM, KWP and the other KDA variants have no
// built-in vector set.
var selftestVectors = map[string]string{
	"AES-CBC": `{
		"algorithm": "ACVP-AES-CBC",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "direction": "encrypt", "keyLen": 128,
			"tests": [{
				"tcId": 1,
				"key": "2b7e151628aed2a6abf7158809cf4f3c",
				"iv": "000102030405060708090a0b0c0d0e0f",
				"pt": "6bc1bee22e409f96e93d7e117393172a"
			}]
		}]
	}`,
	"AES-GCM": `{
		"algorithm": "ACVP-AES-GCM",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "direction": "encrypt",
			"keyLen": 256, "ivLen": 96, "tagLen": 128, "ivGen": "internal",
			"tests": [{
				"tcId": 1,
				"key": "0000000000000000000000000000000000000000000000000000000000000000",
				"pt": "00112233445566778899aabbccddeeff",
				"aad": "feedfacedeadbeef"
			}]
		}]
	}`,
	"AES-KW": `{
		"algorithm": "ACVP-AES-KW",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "direction": "encrypt", "keyLen": 128,
			"tests": [{
				"tcId": 1,
				"key": "000102030405060708090a0b0c0d0e0f",
				"pt": "00112233445566778899aabbccddeeff"
			}]
		}]
	}`,
	"HMAC-SHA2-256": `{
		"algorithm": "HMAC-SHA2-256",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "keyLen": 160, "msgLen": 64, "macLen": 256,
			"tests": [{
				"tcId": 1,
				"key": "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
				"msg": "4869205468657265"
			}]
		}]
	}`,
	"CMAC-AES": `{
		"algorithm": "CMAC-AES",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "keyLen": 128, "msgLen": 128, "macLen": 128,
			"tests": [{
				"tcId": 1,
				"key": "2b7e151628aed2a6abf7158809cf4f3c",
				"msg": "6bc1bee22e409f96e93d7e117393172a"
			}]
		}]
	}`,
	"KDA-HKDF": `{
		"algorithm": "KDA-HKDF",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "l": 256, "hmacAlg": "SHA2-256",
			"fixedInfoEncoding": "concatenation",
			"fixedInfoPattern": "uPartyInfo||vPartyInfo||label",
			"tests": [{
				"tcId": 1,
				"z": "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
				"salt": "000102030405060708090a0b0c",
				"uPartyId": "a1a2a3a4",
				"vPartyId": "b1b2b3b4",
				"label": "c0c1c2c3"
			}]
		}]
	}`,
	"KDF108": `{
		"algorithm": "KDF108",
		"testGroups": [{
			"tgId": 1, "testType": "AFT", "kdfMode": "counter",
			"macMode": "HMAC-SHA2-256", "counterLocation": "before fixed data",
			"counterLength": 8, "keyOutLength": 256,
			"tests": [{
				"tcId": 1,
				"keyIn": "00112233445566778899aabbccddeeff"
			}]
		}]
	}`,
}

// selftestOrder pins the run order so output is stable.
var selftestOrder = []string{
	"AES-CBC", "AES-GCM", "AES-KW", "HMAC-SHA2-256", "CMAC-AES", "KDA-HKDF", "KDF108",
}

func selftestCommand() {
	fs := flag.NewFlagSet("selftest", flag.ExitOnError)
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error, silent")
	verbose := fs.Bool("verbose", false, "Print each response document")
	_ = fs.Parse(os.Args[2:])

	zlog := metrics.NewZapLogger(parseLevel(*logLevel), os.Stderr)
	defer func() { _ = zlog.Sync() }()

	collector := metrics.NewCollector(metrics.Labels{"instance": "selftest"})
	obs := metrics.NewEngineObserver(metrics.EngineObserverConfig{Collector: collector})

	ctx, err := newReferenceModule(obs)
	if err != nil {
		zlog.Fatal("building reference module: " + err.Error())
	}
	defer ctx.Close()

	failed := 0
	for _, name := range selftestOrder {
		resp, err := ctx.ProcessVectorSet([]byte(selftestVectors[name]))
		if err != nil {
			fmt.Printf("FAIL  %-14s %v\n", name, err)
			failed++
			continue
		}
		fmt.Printf("ok    %-14s %d bytes\n", name, len(resp))
		if *verbose {
			fmt.Println(string(resp))
		}
	}

	snap := collector.Snapshot()
	fmt.Printf("\nvector sets: %d processed, %d failed\n", snap.VectorSetsTotal, snap.VectorSetsFailed)
	if failed > 0 {
		os.Exit(1)
	}
}
