// Package secret provides sealed environment values for manifests.
//
// CI pipelines routinely need tokens in stage environments. Sealing
// encrypts a value with ChaCha20-Poly1305 under a passphrase so the
// manifest stays committable; the runner opens sealed values at run
// time using the GATEKIT_SEAL_KEY environment variable.
//
// # Usage
//
//	sealer, err := secret.New(passphrase)
//	sealed, err := sealer.Seal("ghp_token")   // "sealed:...base64..."
//	plain, err := sealer.Open(sealed)
package secret
