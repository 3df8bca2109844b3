// Package udp forwards text messages to a fixed peer as single datagrams.
//
// Text is re-encoded from UTF-8 into the configured charset before sending.
// The default, KOI8-R, matches the receiving display servers this bridge
// was built for; any WHATWG encoding label is accepted.
package udp
