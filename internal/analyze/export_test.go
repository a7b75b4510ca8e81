package analyze

// Exports for black-box tests.

// WithChatCompleter injects a mock chat completer.
var WithChatCompleter = withChatCompleter

// Internal parsing helpers under test.
var (
	ExtractJSONArray  = extractJSONArray
	ExtractJSONObject = extractJSONObject
	StripMarkers      = stripMarkers
)
