package storage

import (
	"encoding/json"
	"fmt"

	"github.com/baldhumanity/evoboard/neat"
)

// schemaVersion is bumped whenever the persisted genome or ledger layout
// changes incompatibly.
const schemaVersion = 1

// EncodeGenome serializes a genome record for storage.
func EncodeGenome(rec neat.GenomeRecord) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode genome %d: %w", rec.Key, err)
	}
	return payload, nil
}

// DecodeGenome deserializes a stored genome record.
func DecodeGenome(payload []byte) (neat.GenomeRecord, error) {
	var rec neat.GenomeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return neat.GenomeRecord{}, fmt.Errorf("decode genome: %w", err)
	}
	return rec, nil
}

// EncodeLedger serializes an innovation ledger for storage.
func EncodeLedger(records []neat.InnovationRecord) ([]byte, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return payload, nil
}

// DecodeLedger deserializes a stored innovation ledger.
func DecodeLedger(payload []byte) ([]neat.InnovationRecord, error) {
	var records []neat.InnovationRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	return records, nil
}
