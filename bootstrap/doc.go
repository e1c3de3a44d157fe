/*
Package bootstrap turns a NetworkConfig into a ready builder client whose
identity is registered with the storage nodes.

# Sequence

Bootstrap performs, strictly in order:

 1. API key presence check (ErrMissingCredential, before any collaborator runs)
 2. signer derivation from the API key
 3. DID derivation from the signer
 4. network classification of the auth URL (nilauth.ClassifyNetwork)
 5. auth client creation for the selected chain id
 6. builder client creation from signer, node URLs and auth client
 7. root token refresh
 8. EnsureRegistered

Errors from steps 2-7 are returned unchanged.

# Registration

EnsureRegistered is a check-then-act: a failed profile read, whatever the
cause, leads to a registration attempt. A registration error matching
IsDuplicateIdentityError means another process registered the same identity in
between; it is recovered and reported as RecoveredConflict in the
RegistrationResult rather than returned.
*/
package bootstrap
