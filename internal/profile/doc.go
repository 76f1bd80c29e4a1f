// Package profile records scheduler activity into commit profiles and
// stores them.
//
// A Recorder is a runtime.Observer. Install it for the duration of a run,
// then call Finish and hand the Profile to a Store:
//
//	rec := profile.NewRecorder("counter")
//	cfg.Observer = runtime.MultiObserver{rec, metrics}
//	...
//	p := rec.Finish()
//	err := store.Save(ctx, p)
//
// FileStore keeps one JSON document per profile in a directory. S3Store
// keeps them in a bucket under a key prefix.
package profile
