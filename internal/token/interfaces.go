// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package token defines the boundary to FIDO2-class hardware tokens.
//
// The engine never talks to a device directly; it consumes [Service] and
// stores only what the vault format needs: the credential serial and the
// 64-byte challenge written into the envelope at enrollment time. A real
// device binding lives outside this module. The package ships [Fake], a
// deterministic software token, so that creation and open flows are testable
// end to end without hardware.
//
// Error values defined in errors.go let callers distinguish "no device" from
// "device said no" with [errors.Is].
package token

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/token_service_mock.go -package=mock -mock_names=Service=MockTokenService

// ResponseLen is the challenge-response length every implementation must
// return. It matches the KEK width so the response can be folded into the
// key by XOR.
const ResponseLen = 32

// Credential is the device-side result of an enrollment.
type Credential struct {
	// Serial identifies the enrolled token, 1-255 bytes. It is stored in
	// cleartext in the vault envelope so open can tell the user which
	// device to present.
	Serial []byte
}

// Service is the device-I/O boundary for hardware-token enrollment and
// authentication. Both calls block on user interaction (a touch, a PIN
// entry), so they take a context; implementations should abandon the device
// operation when it is cancelled.
type Service interface {
	// CreateCredential enrolls a new credential on the device, prompting
	// the user as needed. The pin is forwarded to the device verbatim and
	// never retained.
	CreateCredential(ctx context.Context, pin string) (*Credential, error)

	// ChallengeResponse asks the device to answer a 64-byte challenge with
	// its [ResponseLen]-byte response. The same challenge must always
	// yield the same response on the same device, or the hybrid KEK is
	// unrecoverable.
	ChallengeResponse(ctx context.Context, challenge []byte) ([]byte, error)
}
