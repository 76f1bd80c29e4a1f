// Package errors provides structured, actionable error messages for loom.
//
// Every error carries a unique code that maps to a registered template:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Error Categories
//
//   - runtime: scheduler and component lifecycle failures
//   - config: invalid or unreadable configuration files
//   - profile: commit profile recording and storage
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("L001").
//	    WithDetail("target #app was removed before the first commit").
//	    WithSuggestion("Keep the target attached until Mount resolves")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR L001: Mount target is not attached
//	//
//	//   target #app was removed before the first commit
//	//
//	//   Hint: Keep the target attached until Mount resolves
//	//
//	//   Learn more: https://loom.dev/docs/errors/L001
//
// Errors returned by New are distinct values. Packages that want sentinel
// errors create them once at package level and compare with errors.Is.
package errors
