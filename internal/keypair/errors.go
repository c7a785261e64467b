package keypair

import "errors"

var (
	ErrFailedToGenerateKey     = errors.New("failed to generate RSA key")
	ErrFailedToEncodePublicKey = errors.New("failed to encode public key")
	ErrFailedToWriteKeyFile    = errors.New("failed to write key file")
)
