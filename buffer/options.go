package buffer

// Option configures a BufferManager at construction. spec.md places
// configuration loading out of scope and nothing at this layer needs a
// config file, so wiring follows the pack's functional-options idiom
// for optional constructor parameters (e.g.
// bietkhonhungvandi212-array-db's NewBufferPool(size, fm, replacer,
// shared) constructor-injection style, generalized to variadic options
// rather than fixed positional params since most callers want none).
type Option func(*BufferManager)

// WithAdmissionPolicy installs a non-default AdmissionPolicy, typically
// a *RistrettoPolicy. Without this option a BufferManager uses a
// no-op policy.
func WithAdmissionPolicy(p AdmissionPolicy) Option {
	return func(bm *BufferManager) { bm.policy = p }
}
