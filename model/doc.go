// Package model contains the resilient chat-completion client: admission
// control (fixed-window rate limiting), an explicit retry policy with
// exponential backoff, a typed error taxonomy, and buffered plus streaming
// invocation modes. Concrete provider adapters live in sub-packages
// (model/openai, model/anthropic) behind the Provider interface, so the rest
// of the system never branches on vendor.
package model
