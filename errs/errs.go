// Package errs declares the sentinel error values surfaced by the host-side
// data integration layer. Callers compare with errors.Is; wrapped causes are
// attached with fmt.Errorf("...: %w", ...) at the call site.
package errs

import "errors"

var (
	// NameInUse is returned by registry.Register when replace is false and
	// a registration already exists under the given name.
	NameInUse = errors.New("name already in use")

	// UnknownScanSource is returned when the engine asks to scan a name
	// that has no live registration.
	UnknownScanSource = errors.New("unknown scan source")

	// UnsupportedRegistrationInput signals that register's source value
	// isn't a recognized holder source. register returns (false, nil) to
	// the caller rather than this error, so embedders can fall back; the
	// error exists for internal plumbing and direct unit tests.
	UnsupportedRegistrationInput = errors.New("unsupported registration input")

	// StreamAlreadyConsumed is returned when a single-use stream (a lazy
	// holder's produce_filtered result, or a replaced single-use source)
	// is read a second time.
	StreamAlreadyConsumed = errors.New("stream already consumed")

	// UdtfNotRegistered names a UDTF lookup miss. No code path in this
	// module returns it: udtf.Registry.Lookup reports a miss as ok=false,
	// and the preprocessor leaves such a call unchanged for the engine.
	UdtfNotRegistered = errors.New("udtf not registered")

	// UdtfExecutionFailed wraps a panic or error raised by a UDTF callable.
	UdtfExecutionFailed = errors.New("udtf execution failed")

	// UdtfBadReturnType is returned when a UDTF's return value does not
	// expose an Arrow stream capability (udtf.Streamable).
	UdtfBadReturnType = errors.New("udtf did not return a streamable result")

	// LazyFrameRejected is returned when a registration source is a lazy
	// frame in a context that requires the collect step to stay under
	// caller control.
	LazyFrameRejected = errors.New("lazy frame rejected")

	// ReadOnlyMemoryNotAllowed is returned by engine.Open when ReadOnly is
	// set with no Database path (in-memory databases can't be read-only).
	ReadOnlyMemoryNotAllowed = errors.New("read-only in-memory database not allowed")

	// InvalidOutputType is returned for an unrecognized OutputFormat value.
	InvalidOutputType = errors.New("invalid output format")

	// DeadlockDetected is the engine-reported condition when a scan
	// callback re-enters the same connection's query path.
	DeadlockDetected = errors.New("deadlock detected")

	// InvalidConfig names a malformed configuration. engine.Config.Validate
	// does not return it: the two conflicts it checks are reported as
	// ReadOnlyMemoryNotAllowed and InvalidOutputType.
	InvalidConfig = errors.New("invalid connection config")
)
