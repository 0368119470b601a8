// Package providers contains the LLM client abstraction and its concrete
// adapters. The orchestrator only sees the provider.Completer interface;
// each adapter maps the host's conversation model onto one vendor API.
package providers
