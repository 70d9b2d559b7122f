package document

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFile reads and loads a PD from the JSON file at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, path, err)
	}
	return Load(data)
}

// LoadTOMLFile reads a TOML-wrapped PD: a [cardity] table carrying the
// same fields as the JSON form. JSON remains the canonical format; the
// TOML form is converted to canonical JSON before loading, so the
// derived hash matches the equivalent JSON document.
func LoadTOMLFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, path, err)
	}
	var wrapper struct {
		Cardity map[string]any `toml:"cardity"`
	}
	if err := toml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: parse TOML: %v", ErrLoad, err)
	}
	if wrapper.Cardity == nil {
		return nil, fmt.Errorf("%w: missing [cardity] table", ErrLoad)
	}
	jsonData, err := json.Marshal(wrapper.Cardity)
	if err != nil {
		return nil, fmt.Errorf("%w: convert TOML document: %v", ErrLoad, err)
	}
	return Load(jsonData)
}

// LoadBase64 decodes a base64-wrapped PD and loads it. Base64 is a
// transport wrapper only; the decoded bytes carry the same JSON format.
func LoadBase64(s string) (*Document, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", ErrLoad, err)
	}
	return Load(data)
}

// Load parses, validates, and finalizes a PD from raw JSON bytes. The
// derived ABI is computed from the declarations, and the content hash is
// computed from the canonical re-encoding of the input unless the input
// already supplies one.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse JSON: %v", ErrLoad, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	doc.abi = deriveABI(doc.CPL, doc.Protocol, doc.Version)

	if doc.Hash == "" {
		hash, err := ContentHash(data)
		if err != nil {
			return nil, err
		}
		doc.Hash = hash
	}
	return &doc, nil
}

// ContentHash computes the content digest of a PD: SHA-256 over the
// canonical JSON re-encoding of the input (object keys sorted, no
// insignificant whitespace), hex-encoded. Reloading the same document
// therefore reproduces the same hash regardless of the input's key order
// or formatting.
func ContentHash(data []byte) (string, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("%w: parse JSON for hashing: %v", ErrLoad, err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize for hashing: %v", ErrLoad, err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
