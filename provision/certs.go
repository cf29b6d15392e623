package provision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/curve25519"

	"github.com/yllada/nebula-tower/common"
)

// HostKeyInfo describes a nebula X25519 host key.
type HostKeyInfo struct {
	PublicKey   []byte
	Fingerprint string
}

var errNotHostKey = errors.New("not a nebula X25519 private key")

// CheckExistingCerts reports whether any certificate artifact already exists
// beside configPath.
func CheckExistingCerts(configPath string) bool {
	for _, path := range common.CertPaths(configPath) {
		if common.FileExists(path) {
			return true
		}
	}
	return false
}

// InspectHostKey derives the public key of the PEM encoded host key at path.
// The fingerprint is the hex SHA-256 of the public key.
func InspectHostKey(path string) (*HostKeyInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseHostKey(data)
}

// ParseHostKey is InspectHostKey for in-memory PEM data.
func ParseHostKey(data []byte) (*HostKeyInfo, error) {
	block, _ := pem.Decode(data)
	if block == nil || !strings.Contains(block.Type, "X25519 PRIVATE KEY") {
		return nil, errNotHostKey
	}
	if len(block.Bytes) != curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: key is %d bytes", errNotHostKey, len(block.Bytes))
	}

	pub, err := curve25519.X25519(block.Bytes, curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(pub)
	return &HostKeyInfo{PublicKey: pub, Fingerprint: hex.EncodeToString(sum[:])}, nil
}
