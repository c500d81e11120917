// Package intercept logs calls around an explicit wrapping function.
//
// An Interceptor runs one invocation through four ordered phases: it
// resolves the effective CallConfig, logs the redacted parameters, invokes
// the wrapped operation exactly once, and logs either the redacted result
// with elapsed time or the failure. Failures are classified as breaker
// rejections or ordinary errors, which selects the log shape only.
//
// The interceptor is transparent to callers. The wrapped operation's result
// and error are returned unchanged and a panic is re-raised with its
// original value after it has been logged. Log construction never fails the
// call; a problem building a record is reported as a warning instead.
//
// # Configuration
//
// CallConfig can be declared on an operation (OperationMeta.Config) or on
// the enclosing type (TypeMeta.Config). The operation's config wins outright
// when present; otherwise the type's is used; otherwise every toggle is on.
//
// # Usage
//
//	ic := intercept.New(
//		intercept.WithSink(observe.LoggerSink(logger)),
//		intercept.WithBreakers(registry),
//	)
//	greet := intercept.Wrap1(ic, typ, intercept.OperationMeta{
//		Name:   "Greet",
//		Params: []intercept.Param{{Name: "name"}},
//	}, func(ctx context.Context, name string) (string, error) {
//		return "hello " + name, nil
//	})
package intercept
