// Package fetch provides the shared, rate-limited and retrying HTTP gateway used by every
// crawler and collector.
//
// A Gateway owns one base colly collector and clones it per request. Before every attempt
// the injected Limiter is consulted, so the minimum gap between outbound requests holds
// across retries and across concurrent callers.
package fetch
