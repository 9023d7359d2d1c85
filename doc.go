/*
Package objectstore persists Go values under string identifiers.

Values are encoded to text by a codec.Codec (JSON by default) and the text is
kept in a store.Store, which may be a directory of files, an embedded
database, a flat preferences file, S3, and so on. There is no cache: every
call reads or writes the store.

The engine, Raw, returns every failure as an error. Decoding is driven by
the type the caller asks for, since the stored text carries no type
information:

	r := objectstore.New(store.NewFileSystem("/var/lib/app"))
	r.Store("config", cfg)
	cfg, err := objectstore.Get[Config](r, "config")

	objectstore.StoreList(r, "recent", []string{"a", "b"})
	recent, err := objectstore.GetList[string](r, "recent")

	objectstore.StoreMap(r, "counts", map[int]string{1: "one"})
	counts, err := objectstore.GetMap[int, string](r, "counts")

Collections are stored as a single array. Maps are stored as an array of
{"key": ..., "value": ...} objects so that keys need not be strings.

Package safe wraps a Raw for callers who prefer false or nil to an error,
and package async runs the same operations on a worker pool, delivering
results to callbacks.

Overwriting is enabled by default. With it disabled the store operations
leave an existing entry alone and report false. Operations on the same
identifier are serialized by a lock inside the engine; different identifiers
proceed in parallel.
*/
package objectstore
