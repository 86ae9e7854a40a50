/*
Package loader is the public face of the asset cache.

A Loader wires the cache tiers, the connectivity monitor and the fetch
coordinator together and runs the background maintenance: periodic pruning
of the disk tier and export of cache statistics as metrics.

	l := loader.New(loader.Config{CacheDir: "/var/cache/assets"}, loader.Deps{})
	l.Start(ctx)
	defer l.Shutdown(context.Background())

	res := l.RequestImage(ctx, "https://images.unsplash.com/photo-1",
		loader.WithCategory(placeholder.Breakfast),
		loader.WithTargetSize(300, 200),
		loader.WithPriority(true),
	).Wait()

Every request completes with an image. When the network cannot deliver, the
result is a placeholder and Result.Err says why. Requests made while offline
are retried in the background once connectivity returns.

Loader also implements memory.Trimmer, so a memory.Monitor can shrink the
memory tier under pressure.
*/
package loader
