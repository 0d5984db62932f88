package guardrail

// Code identifies an entry in the structured error taxonomy. Every failure
// surfaced by this repository carries exactly one code; the CLI maps codes
// to exit statuses and the orchestration layer maps them to retry policy.
type Code string

const (
	// Authentication and configuration.
	CodeAuth     Code = "E-AUTH"
	CodeConfig   Code = "E-CONFIG"
	CodeStubPath Code = "E-STUB-PATH"

	// Network and provider transport.
	CodeTimeout       Code = "E-TIMEOUT"
	CodeNetwork       Code = "E-NETWORK"
	CodeRateLimit     Code = "E-RATE-LIMIT"
	CodeProviderHTTP  Code = "E-PROVIDER-HTTP"
	CodeProviderParse Code = "E-PROVIDER-PARSE"

	// Market data and calendar.
	CodeCalendar       Code = "E-CALENDAR"
	CodeSession        Code = "E-SESSION"
	CodeNoDataDaily    Code = "E-NODATA-DAILY"
	CodeNoDataIntraday Code = "E-NODATA-INTRADAY"

	// Validation and schema.
	CodeFormat     Code = "E-FORMAT"
	CodeValidation Code = "E-VALIDATION"
	CodeSchema     Code = "E-SCHEMA"

	CodeUnknown Code = "E-UNKNOWN"
)

// RetryStrategy tells callers how a failed operation may be retried.
type RetryStrategy string

const (
	RetryNo      RetryStrategy = "no"
	RetryBackoff RetryStrategy = "backoff"
	RetryAuth    RetryStrategy = "auth"
)

// CodeInfo carries the taxonomy metadata for one error code.
type CodeInfo struct {
	Meaning  string
	Retry    RetryStrategy
	ExitCode int
}

var taxonomy = map[Code]CodeInfo{
	CodeAuth:           {Meaning: "missing/expired/invalid auth", Retry: RetryAuth, ExitCode: 2},
	CodeConfig:         {Meaning: "bad or missing configuration", Retry: RetryNo, ExitCode: 2},
	CodeStubPath:       {Meaning: "stub code path invoked in production", Retry: RetryNo, ExitCode: 2},
	CodeTimeout:        {Meaning: "upstream timeout", Retry: RetryBackoff, ExitCode: 3},
	CodeNetwork:        {Meaning: "DNS/TLS/connect failure", Retry: RetryBackoff, ExitCode: 3},
	CodeRateLimit:      {Meaning: "provider rate limit hit", Retry: RetryBackoff, ExitCode: 3},
	CodeProviderHTTP:   {Meaning: "provider returned non-2xx", Retry: RetryBackoff, ExitCode: 3},
	CodeProviderParse:  {Meaning: "provider payload unparseable", Retry: RetryNo, ExitCode: 3},
	CodeCalendar:       {Meaning: "exchange calendar resolution failed", Retry: RetryNo, ExitCode: 4},
	CodeSession:        {Meaning: "no usable trading session", Retry: RetryNo, ExitCode: 4},
	CodeNoDataDaily:    {Meaning: "daily OHLC series absent upstream", Retry: RetryNo, ExitCode: 4},
	CodeNoDataIntraday: {Meaning: "intraday bars absent upstream", Retry: RetryNo, ExitCode: 1},
	CodeFormat:         {Meaning: "malformed user input", Retry: RetryNo, ExitCode: 2},
	CodeValidation:     {Meaning: "precondition violated on a public operation", Retry: RetryNo, ExitCode: 2},
	CodeSchema:         {Meaning: "output failed schema validation", Retry: RetryNo, ExitCode: 2},
	CodeUnknown:        {Meaning: "unclassified failure", Retry: RetryNo, ExitCode: 2},
}

// Info returns taxonomy metadata for the code, falling back to E-UNKNOWN.
func (c Code) Info() CodeInfo {
	if info, ok := taxonomy[c]; ok {
		return info
	}
	return taxonomy[CodeUnknown]
}

// ExitCode returns the CLI exit status associated with the code.
func (c Code) ExitCode() int { return c.Info().ExitCode }

// Retryable reports whether the taxonomy allows any retry for the code.
func (c Code) Retryable() bool { return c.Info().Retry != RetryNo }
