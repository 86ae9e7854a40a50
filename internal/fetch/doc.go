/*
Package fetch coordinates image requests across the cache tiers, the
application bundle and the network.

Load resolves a request in this order: memory, disk, bundled asset, network.
Whatever happens, it returns an image; when nothing real is available the
placeholder resolver supplies one and Result.Err says why.

At most one transfer per key is registered at a time. Later requests for the
same key wait on the existing transfer, and a high priority request
escalates a queued low priority one. Transfers run on a fixed worker pool
that always takes high priority work first.

While offline, a remote request gets a placeholder at once and a deferred
fetch is registered for its key. It waits for connectivity, downloads the
image and stores it so that the next request is a cache hit.

On expensive connections the timeout drops from 30s to 15s and URLs on
RewriteHost are rewritten to ask for a smaller, lower quality image.
*/
package fetch
