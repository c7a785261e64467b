package keypair

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tunnelmaker/internal/logger"

	"golang.org/x/crypto/ssh"
)

const (
	PrivateKeyFileName = "tunnel_maker_private_key.pem"
	PublicKeyFileName  = "tunnel_maker_public_key.pub"
	DefaultBits        = 2048
)

// Keypair is a one-off RSA key written to disk for upload.
type Keypair struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  ssh.PublicKey
	// AuthorizedKey is "<algorithm> <base64>", ready for authorized_keys.
	AuthorizedKey  string
	PrivateKeyPath string
	PublicKeyPath  string
}

// Generate creates an RSA key of the given size and writes both halves
// into outputDir.
func Generate(outputDir string, bits int, log *logger.Logger) (*Keypair, error) {
	if bits <= 0 {
		bits = DefaultBits
	}

	log.Info("Creating temporary SSH keypair.")

	key, err := rsa.GenerateKey(rand.Reader, bits)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGenerateKey, err)
	}

	pub, err := ssh.NewPublicKey(&key.PublicKey)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToEncodePublicKey, err)
	}

	kp := &Keypair{
		PrivateKey:     key,
		PublicKey:      pub,
		AuthorizedKey:  strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))),
		PrivateKeyPath: filepath.Join(outputDir, PrivateKeyFileName),
		PublicKeyPath:  filepath.Join(outputDir, PublicKeyFileName),
	}

	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	if err := os.WriteFile(kp.PrivateKeyPath, pemData, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteKeyFile, err)
	}

	if err := os.WriteFile(kp.PublicKeyPath, []byte(kp.AuthorizedKey), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteKeyFile, err)
	}

	log.Info("Private key written to: %s", kp.PrivateKeyPath)
	log.Info("Public key written to: %s", kp.PublicKeyPath)

	return kp, nil
}
