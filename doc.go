// Package puller converges a local publish root onto the file set declared
// by a remote manifest.
//
// A run fetches <origin>/manifests/latest.json, downloads every missing
// object into a content-addressed store at <root>/objects/<hash>, assembles
// the version's tree in a hidden staging directory, promotes it atomically to
// <root>/snapshots/<version>, and finally retargets the <root>/current
// symlink. Readers of the published tree never observe a half-written
// snapshot, and re-running after a crash at any point converges without
// redoing completed work: present objects, present snapshots, and a correct
// pointer are all detected and skipped.
//
// Multiple origins provide fail-over: every fetch tries them strictly in
// order and takes the first success. There is no retry against the same
// origin and no backoff.
//
//	p, err := puller.New(
//	    []string{"https://cdn-a.example", "https://cdn-b.example"},
//	    "/var/www/cityfeed",
//	    puller.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	return p.Run(ctx)
//
// The manifest's hash field is used purely as an opaque cache key and
// filename; downloaded bytes are checked against the declared size only,
// never against the hash. Whether origins are a trusted boundary or this is
// an integrity gap is a deliberate open point of the design, documented here
// rather than papered over.
package puller
