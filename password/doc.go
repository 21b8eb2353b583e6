// Package password implements one-way credential hashing and verification.
//
// Every plaintext is first reduced to the hex form of its SHA-256 digest. The
// digest normalizes arbitrarily long input and keeps bcrypt below its 72-byte
// input ceiling. The digest is then fed to a memory-hard or adaptive scheme:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>   (default)
//	$2b$<cost>$<salt+hash>                                          (bcrypt)
//
// [Manager.Verify] dispatches on the stored prefix, so hashes produced by either
// scheme keep verifying after the configured scheme changes. [Manager.NeedsUpgrade]
// reports hashes produced by another scheme or weaker parameters.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Enforce password policy (length, confirmation). The Engine owns that.
//   - Import any other authcore package.
package password
