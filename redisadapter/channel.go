package redisadapter

import "strings"

// channelKind tags a decoded bus channel by what it carries.
type channelKind int

const (
	kindNamespace channelKind = iota
	kindRoom
	kindClientRequest
	kindClientResponse
)

const (
	channelSep           = "#"
	clientRequestSuffix  = "clientrequest"
	clientResponseSuffix = "clientresponse"
)

// namespaceChannel builds "{prefix}#{nsp}#" - every peer subscribes to this
// once per live namespace.
func namespaceChannel(prefix, nsp string) string {
	return prefix + channelSep + nsp + channelSep
}

// roomChannel builds "{prefix}#{nsp}#{room}#" - subscribed only while this
// process has at least one local member in room.
func roomChannel(prefix, nsp, room string) string {
	return prefix + channelSep + nsp + channelSep + room + channelSep
}

// clientRequestChannel builds "{prefix}#clientrequest" - subscribed once per
// process, regardless of namespace count.
func clientRequestChannel(prefix string) string {
	return prefix + channelSep + clientRequestSuffix
}

// clientResponseChannel builds "{prefix}#{muid}#clientresponse" - subscribed
// only while a clients query with that muid is outstanding.
func clientResponseChannel(prefix, muid string) string {
	return prefix + channelSep + muid + channelSep + clientResponseSuffix
}

// decodedChannel is the result of decoding a channel string back into its
// parts, including the namespace or room that produced a broadcast channel.
type decodedChannel struct {
	kind channelKind
	nsp  string // set for kindNamespace and kindRoom
	room string // set for kindRoom
	muid string // set for kindClientResponse
}

// decodeChannel recovers the channel's kind from its final non-empty
// segment, mirroring the encoders above exactly. Channel strings are treated
// as opaque UTF-8 bytes - no collation, no case folding.
func decodeChannel(prefix, channel string) (decodedChannel, bool) {
	if !strings.HasPrefix(channel, prefix+channelSep) {
		return decodedChannel{}, false
	}
	rest := channel[len(prefix)+len(channelSep):]

	if rest == clientRequestSuffix {
		return decodedChannel{kind: kindClientRequest}, true
	}

	// Every broadcast/response channel the encoders above produce ends in a
	// trailing "#", so splitting on it would yield a trailing empty segment:
	// strip it once, then split.
	trimmed := strings.TrimSuffix(rest, channelSep)
	segments := strings.Split(trimmed, channelSep)

	if len(segments) == 2 && segments[1] == clientResponseSuffix {
		return decodedChannel{kind: kindClientResponse, muid: segments[0]}, true
	}

	switch len(segments) {
	case 1:
		return decodedChannel{kind: kindNamespace, nsp: segments[0]}, true
	case 2:
		return decodedChannel{kind: kindRoom, nsp: segments[0], room: segments[1]}, true
	default:
		return decodedChannel{}, false
	}
}
