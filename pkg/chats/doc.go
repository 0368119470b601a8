// Package chats provides the conversation data model for the host.
//
// It is organized into sub-packages:
//   - [github.com/soracase/mcphost/pkg/chats/role] — conversation roles (system, user, assistant, tool)
//   - [github.com/soracase/mcphost/pkg/chats/content] — content parts (text, tool call, tool result)
//   - [github.com/soracase/mcphost/pkg/chats/message] — messages composed of a role and content parts
//   - [github.com/soracase/mcphost/pkg/chats/chat] — append-only conversation container
//
// No provider or API code is included — chats is a foundation layer
// that adapters build on.
package chats
