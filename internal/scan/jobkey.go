package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Key names a job directory. It is a pure function of Parameters and is
// stable across processes and machines.
type Key string

// keyLen is the number of hex characters kept from the digest.
const keyLen = 16

// DeriveKey returns the job key for p: a truncated SHA-256 over a canonical
// text encoding of every parameter.
func DeriveKey(p Parameters) Key {
	sum := sha256.Sum256([]byte(canonical(p)))
	return Key(hex.EncodeToString(sum[:])[:keyLen])
}

// canonical encodes p with the shortest round-trip float formatting, so two
// tuples encode alike exactly when they are equal. Adding zero folds -0 into 0.
func canonical(p Parameters) string {
	return fmt.Sprintf("r=%s;d=%s;m=%s;h=%t;z=%t;s=%t",
		formatFloat(p.Radius), formatFloat(p.Displacement), formatFloat(p.MeshSize),
		p.RemoveHydrogens, p.OrientZ, p.WriteSurfaceFiles)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v+0, 'g', -1, 64)
}

func (k Key) String() string { return string(k) }
