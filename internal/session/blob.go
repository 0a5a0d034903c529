package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// encodeBlob serializes a document to zstd-compressed JSON.
func encodeBlob(doc Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeBlob reverses encodeBlob. Any decompression or decode failure is
// returned as an error so callers can discard the blob wholesale; a corrupt
// session must never be partially trusted.
func decodeBlob(blob []byte) (Document, error) {
	var doc Document
	dec, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return doc, fmt.Errorf("open session blob: %w", err)
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return doc, fmt.Errorf("decompress session blob: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("unmarshal session: %w", err)
	}
	if doc.Version != DocumentVersion {
		return doc, fmt.Errorf("unsupported session version %d", doc.Version)
	}
	return doc, nil
}
