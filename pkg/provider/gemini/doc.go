// Package gemini implements provider.Provider for the Google Generative
// Language REST API (generateContent). The model name is part of the URL
// path and the API key travels as the "key" query parameter.
package gemini
