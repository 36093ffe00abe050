// Package crawler walks vlr.gg's event hierarchy (listing pages, events, stages and
// matches) and hands every discovered match to the artifact collector.
package crawler
