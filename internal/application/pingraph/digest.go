package pingraph

import (
	"encoding/hex"
	"strconv"

	"lukechampine.com/blake3"

	"github.com/turtacn/proteingraph/internal/domain/structure"
)

// Digest returns the hex BLAKE3-256 of the atom rows of t in table order.
// Coordinates are rounded to the 0.001 Å precision of PDB files so that a
// structure read from PDB or CSV hashes identically.
func Digest(t *structure.AtomTable) string {
	h := blake3.New(32, nil)
	buf := make([]byte, 0, 96)
	for _, a := range t.Atoms() {
		buf = buf[:0]
		buf = append(buf, a.RecordType...)
		buf = append(buf, '|')
		buf = append(buf, a.AtomName...)
		buf = append(buf, '|')
		buf = append(buf, a.ResidueName...)
		buf = append(buf, '|')
		buf = append(buf, a.ChainID...)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, int64(a.ResidueNumber), 10)
		for _, c := range [3]float64{a.X, a.Y, a.Z} {
			buf = append(buf, '|')
			buf = strconv.AppendFloat(buf, c, 'f', 3, 64)
		}
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// fingerprint hashes the build settings that change the graph, so cached
// documents are only reused for the same detector configuration.
func fingerprint(parts ...string) string {
	h := blake3.New(8, nil)
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
