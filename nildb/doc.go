/*
Package nildb provides the builder client for SecretVault storage nodes.

A Builder is bound to one builder identity (an interfaces.Signer), an ordered
list of node base URLs and an interfaces.AuthClient. It is created once, primed
with a root token, and then used for node operations.

# Lifecycle

 1. NewBuilder fetches GET /about from every node to learn its public key.
 2. RefreshRootToken asks the auth service for a root token.
 3. ReadProfile and Register address every node with a per-node invocation
    token.

Operations issued before RefreshRootToken fail with ErrNoRootToken.

# Authorization

Each request carries "Authorization: Bearer <invocation>/<root>". The invocation
is an ES256K JWT issued and signed by the builder DID, with the node DID as
audience, the "/nil/db" command and the sha256 of the root token as proof.

# Errors

Non-2xx responses become *NodeError values whose message is the node's error
strings verbatim, e.g.

	node https://nildb-1.example returned 400: duplicate key value violates unique constraint "builders_pkey"

Register attempts every node and joins the failures, so a message match on any
node's error is visible on the joined error.
*/
package nildb
