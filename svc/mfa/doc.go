// Package mfa implements TOTP second-factor enrollment, login-time verification
// and recovery-code fallback.
//
// A user moves from unenrolled to enrolling with Enroll, to active with
// VerifySetup and back to unenrolled with Disable. Authenticate, ValidateRecovery
// and RegenerateRecoveryCodes require active MFA.
//
// Every verifying operation consults the AttemptLedger before any cryptographic
// work and records each failed verification. Failures of storage or crypto are
// logged with full detail and surface to callers only as ErrTransient or
// ErrConfiguration. Use Kind to obtain the stable machine-readable error name.
//
// Basic usage:
//
//	cipher, _ := secrets.NewCipher(secretsCfg)
//	store := memstore.New()
//
//	svc, err := mfa.New(cfg, store, store, cipher,
//		mfa.WithLogger(log),
//		mfa.WithQRRenderer(qrcode.New()),
//	)
//
//	res, err := svc.Enroll(ctx, userID)
//	// show res.Secret / res.QRCode, then:
//	out, err := svc.VerifySetup(ctx, mfa.VerifySetupInput{
//		UserID:      userID,
//		ChallengeID: res.ChallengeID,
//		Code:        codeFromApp,
//	})
//
// Atomicity is delegated to the Storage implementation: see the memstore and
// pgstore subpackages. The redisledger subpackage provides a shared AttemptStorage
// for multi-instance deployments.
package mfa
