package products

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DecodeBatch reads a JSON array of raw products as written by the scraper.
// Unknown fields are ignored.
func DecodeBatch(r io.Reader) ([]RawProduct, error) {
	var batch []RawProduct
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode product batch: %w", err)
	}
	if batch == nil {
		return nil, fmt.Errorf("decode product batch: expected a JSON array")
	}
	return batch, nil
}

// ReadBatchFile decodes the product batch stored at path.
func ReadBatchFile(path string) ([]RawProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open product batch: %w", err)
	}
	defer f.Close()
	return DecodeBatch(f)
}
