// Package secret resolves secret-bearing configuration values.
//
// A value is first expanded against the environment (see ExpandEnvStrict).
// Secret references are then resolved through named providers:
//
//	secretref:env:CALLTRACE_JWT_KEY          whole value
//	Bearer secretref:file:/run/secrets/jwt   inline
//
// The env and file providers are built in (see RegisterBuiltins). Resolved
// values are never logged by this package.
package secret
