package reconcile

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
)

// WriteFindingsNDJSON writes one JSON object per finding.
func WriteFindingsNDJSON(w io.Writer, findings []Finding) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, f := range findings {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFindingsNDJSON writes the findings to path.
func SaveFindingsNDJSON(path string, findings []Finding) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFindingsNDJSON(f, findings); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
