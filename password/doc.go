// Package password implements the credential hashing policy: argon2id with
// a per-call random salt, encoded in PHC string format so every hash carries
// its own algorithm and cost parameters. Verification therefore never
// depends on current configuration, and hashes produced under older cost
// settings keep verifying after a cost upgrade.
//
// Legacy bcrypt hashes ($2a$/$2b$/$2y$) verify as well; NeedsUpgrade reports
// them so hosts can rehash opportunistically after a successful login.
package password
