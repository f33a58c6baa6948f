package models

import (
	"strings"

	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// Credential is the opaque scannable token that identifies a worker at a
// terminal. The value is 43 characters of unpadded base64url (a 32-byte
// digest); possession of the printed value is the only way to present it.
type Credential string

// CredentialLength is the encoded length of a well-formed credential.
const CredentialLength = 43

const credentialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Validate checks length and charset. It says nothing about whether any
// worker owns the value.
func (c Credential) Validate() error {
	if len(c) != CredentialLength {
		return dErrors.New(dErrors.CodeInvalidInput, "credential has wrong length")
	}
	for _, r := range string(c) {
		if !strings.ContainsRune(credentialAlphabet, r) {
			return dErrors.New(dErrors.CodeInvalidInput, "credential contains invalid characters")
		}
	}
	return nil
}
