// Package providers implements the Completer interface for each supported
// model backend.
//
// Supported backends: OpenAI (hosted chat-completions API) and Local
// (Ollama / LM Studio via their OpenAI-compatible endpoint).
//
// All backends share a common retry helper with exponential back-off for
// rate-limit and 5xx responses; auth errors fail immediately. Base URLs are
// overridable through environment variables so tests can redirect calls to
// local httptest servers without making live API requests.
//
// Use [New] to obtain a Completer by backend name and model string.
package providers
