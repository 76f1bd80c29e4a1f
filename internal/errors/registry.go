package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (L001-L099)
	// ============================================

	"L001": {
		Category: CategoryRuntime,
		Message:  "Mount target is not attached",
		Detail:   "The target passed to Mount was detached from its host tree before the first commit could be applied.",
		DocURL:   "https://loom.dev/docs/errors/L001",
	},
	"L002": {
		Category: CategoryRuntime,
		Message:  "Attempted to render a cancelled fiber",
		Detail:   "A render was requested on a fiber that was superseded by a newer render of the same component.",
		DocURL:   "https://loom.dev/docs/errors/L002",
	},
	"L003": {
		Category: CategoryRuntime,
		Message:  "Application destroyed",
		Detail:   "The application was torn down before this operation could complete.",
		DocURL:   "https://loom.dev/docs/errors/L003",
	},
	"L004": {
		Category: CategoryRuntime,
		Message:  "Unhandled component error",
		Detail:   "No onError handler in the component's ancestor chain handled the error, so the whole application was destroyed.",
		DocURL:   "https://loom.dev/docs/errors/L004",
	},
	"L005": {
		Category: CategoryRuntime,
		Message:  "Application already mounted",
		Detail:   "An App hosts a single root component. Create another App to mount a second tree.",
		DocURL:   "https://loom.dev/docs/errors/L005",
	},

	// ============================================
	// Config Errors (L100-L149)
	// ============================================

	"L100": {
		Category: CategoryConfig,
		Message:  "Config file unreadable",
		Detail:   "The configuration file could not be read or is not valid TOML.",
		DocURL:   "https://loom.dev/docs/errors/L100",
	},
	"L101": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is outside its allowed range.",
		DocURL:   "https://loom.dev/docs/errors/L101",
	},

	// ============================================
	// Profile Errors (L150-L199)
	// ============================================

	"L150": {
		Category: CategoryProfile,
		Message:  "Profile store failed",
		Detail:   "The commit profile could not be written to its store.",
		DocURL:   "https://loom.dev/docs/errors/L150",
	},
	"L151": {
		Category: CategoryProfile,
		Message:  "Profile not found",
		Detail:   "No stored profile matches the requested ID.",
		DocURL:   "https://loom.dev/docs/errors/L151",
	},

	// ============================================
	// CLI Errors (L200-L249)
	// ============================================

	"L200": {
		Category: CategoryCLI,
		Message:  "Unknown scenario",
		Detail:   "The requested simulation scenario does not exist. Run 'loom simulate --list' to see the available ones.",
		DocURL:   "https://loom.dev/docs/errors/L200",
	},
	"L201": {
		Category: CategoryCLI,
		Message:  "Inspector failed to start",
		Detail:   "The inspector HTTP server could not listen on the configured address.",
		DocURL:   "https://loom.dev/docs/errors/L201",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
